package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/stagehand/stagehand/pkg/config"
	"github.com/stagehand/stagehand/pkg/interfaces"
	"github.com/stagehand/stagehand/pkg/logger"
	"github.com/stagehand/stagehand/pkg/notifier"
	"github.com/stagehand/stagehand/pkg/runner"
	"github.com/stagehand/stagehand/pkg/source"
	"github.com/stagehand/stagehand/pkg/spawn"
	"github.com/stagehand/stagehand/pkg/state"
	"github.com/stagehand/stagehand/pkg/types"
)

// app wires the engine and its collaborators for one process lifetime.
// The deadline state lives inside the runner, so both batches of the
// governed phase (and any triggered re-runs) share one deadline decision.
type app struct {
	cfg     *types.StagehandConfig
	log     logger.Logger
	runner  *runner.PhaseRunner
	history *state.Manager
}

func newApp() (*app, error) {
	cm := config.NewManager()
	configPath := getConfigPath()

	cfg, err := cm.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := string(cfg.LogLevel)
	if verbosity != "" {
		level = verbosity
	}
	log := logger.CreateLogger(cfg.LogFile, level)

	spawner := spawn.New(cfg, filepath.Join(cfg.StateDir, "logs"), log)

	r := runner.New(spawner, runner.NewDeadlineState(), cfg.Governed(), cfg.DeadlineWindow(), log)
	r.SetNotifier(notifier.New(notifier.ConfigFrom(cfg.Notifications), log))

	return &app{
		cfg:     cfg,
		log:     log,
		runner:  r,
		history: state.NewManager(cfg.StateDir, log),
	}, nil
}

// sources returns the phase script sources in batch order: the common
// per-phase directory first, then module scripts.
func (a *app) sources() []interfaces.ScriptSource {
	var sources []interfaces.ScriptSource
	if a.cfg.ScriptRoot != "" {
		sources = append(sources, source.NewDirSource(a.cfg.ScriptRoot, a.cfg.IgnorePatterns, a.log))
	}
	if a.cfg.ModuleRoot != "" {
		sources = append(sources, source.NewModuleSource(a.cfg.ModuleRoot, a.cfg.Modules, a.log))
	}
	return sources
}

// runPhase executes the phase's batches in order. Batch errors are logged
// and do not stop later batches; the host lifecycle proceeds regardless.
func (a *app) runPhase(ctx context.Context, phase types.Phase) {
	for _, src := range a.sources() {
		started := time.Now()

		report, err := a.runner.Run(ctx, phase, src)
		if err != nil {
			a.log.Warn("phase batch failed",
				logger.WithField("phase", phase),
				logger.WithField("source", src.Name()),
				logger.WithField("error", err))
			continue
		}

		if err := a.history.RecordRun(report, started); err != nil {
			a.log.Debug("failed to record run history",
				logger.WithField("phase", phase),
				logger.WithField("error", err))
		}
	}
}
