// Package source provides script discovery for phase batches
package source

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stagehand/stagehand/pkg/interfaces"
	"github.com/stagehand/stagehand/pkg/logger"
	"github.com/stagehand/stagehand/pkg/types"
	"github.com/stagehand/stagehand/pkg/utils"
)

// DirSource lists scripts from a per-phase directory: <root>/<phase>.d/.
// Entries are filtered to regular executable files, in directory-enumeration
// order.
type DirSource struct {
	root   string
	ignore []string
	logger logger.Logger
}

// NewDirSource creates a directory-backed script source
func NewDirSource(root string, ignorePatterns []string, log logger.Logger) *DirSource {
	return &DirSource{
		root:   root,
		ignore: ignorePatterns,
		logger: log,
	}
}

// Name identifies the source in logs
func (s *DirSource) Name() string {
	return "common"
}

// List returns eligible scripts for the phase in dispatch order
func (s *DirSource) List(phase types.Phase) ([]types.ScriptDescriptor, error) {
	dir := filepath.Join(s.root, string(phase)+".d")

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrSourceUnavailable
		}
		return nil, fmt.Errorf("failed to read script directory %s: %w", dir, err)
	}

	descriptors := make([]types.ScriptDescriptor, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		if utils.MatchesAny(name, s.ignore) {
			s.logger.Debug("script ignored by pattern", logger.WithField("script", name))
			continue
		}
		// The entry itself must be a regular file; symlinks are not
		// eligible even when their target is executable.
		if !entry.Type().IsRegular() || !utils.IsExecutableFile(path) {
			s.logger.Debug("script not eligible", logger.WithField("script", name))
			continue
		}

		descriptors = append(descriptors, types.ScriptDescriptor{
			Name: name,
			Path: path,
		})
	}

	return descriptors, nil
}
