package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/stagehand/stagehand/pkg/interfaces"
	"github.com/stagehand/stagehand/pkg/logger"
	"github.com/stagehand/stagehand/pkg/types"
	"github.com/stagehand/stagehand/pkg/utils"
)

// ModuleSource lists scripts contributed by named modules. Each module
// contributes at most one script per phase, <moduleRoot>/<name>/<phase>.sh,
// present only if the file exists. Ordering follows the module list.
type ModuleSource struct {
	moduleRoot string
	modules    []string
	logger     logger.Logger
}

// NewModuleSource creates a module-list-backed script source. An empty
// module list enumerates moduleRoot instead.
func NewModuleSource(moduleRoot string, modules []string, log logger.Logger) *ModuleSource {
	return &ModuleSource{
		moduleRoot: moduleRoot,
		modules:    modules,
		logger:     log,
	}
}

// Name identifies the source in logs
func (s *ModuleSource) Name() string {
	return "modules"
}

// List returns each module's phase script, in module order
func (s *ModuleSource) List(phase types.Phase) ([]types.ScriptDescriptor, error) {
	if !utils.DirectoryExists(s.moduleRoot) {
		return nil, interfaces.ErrSourceUnavailable
	}

	modules := s.modules
	if len(modules) == 0 {
		var err error
		modules, err = ListModules(s.moduleRoot)
		if err != nil {
			return nil, err
		}
	}

	var descriptors []types.ScriptDescriptor
	for _, module := range modules {
		moduleDir := filepath.Join(s.moduleRoot, module)
		if moduleDisabled(moduleDir) {
			s.logger.Debug("module disabled", logger.WithField("module", module))
			continue
		}

		// Module scripts run through the interpreter, so presence is
		// enough; no execute bit required.
		path := filepath.Join(moduleDir, string(phase)+".sh")
		if !utils.FileExists(path) {
			continue
		}

		descriptors = append(descriptors, types.ScriptDescriptor{
			Name:   string(phase) + ".sh",
			Path:   path,
			Module: module,
		})
	}

	return descriptors, nil
}

// ListModules returns enabled module directory names in lexical order
func ListModules(moduleRoot string) ([]string, error) {
	entries, err := os.ReadDir(moduleRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrSourceUnavailable
		}
		return nil, fmt.Errorf("failed to read module root %s: %w", moduleRoot, err)
	}

	var modules []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if moduleDisabled(filepath.Join(moduleRoot, entry.Name())) {
			continue
		}
		modules = append(modules, entry.Name())
	}

	sort.Strings(modules)
	return modules, nil
}

// moduleDisabled reports whether a module carries a disable or remove flag
// file, which suppresses all of its scripts.
func moduleDisabled(moduleDir string) bool {
	for _, flag := range []string{"disable", "remove"} {
		if _, err := os.Stat(filepath.Join(moduleDir, flag)); err == nil {
			return true
		}
	}
	return false
}
