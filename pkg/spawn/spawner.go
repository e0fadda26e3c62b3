// Package spawn starts script subprocesses through the interpreter layer
package spawn

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/stagehand/stagehand/pkg/interfaces"
	"github.com/stagehand/stagehand/pkg/logger"
	"github.com/stagehand/stagehand/pkg/types"
)

// ExecSpawner runs every script through a fixed interpreter with a fixed
// environment-preparation hook applied before each spawn.
type ExecSpawner struct {
	interpreter string
	runtimeDir  string
	extraEnv    map[string]string
	outputDir   string
	logger      logger.Logger

	env  []string
	once sync.Once
}

// New creates a spawner from configuration. outputDir receives per-script
// output logs; empty discards script output.
func New(cfg *types.StagehandConfig, outputDir string, log logger.Logger) *ExecSpawner {
	return &ExecSpawner{
		interpreter: cfg.Interpreter,
		runtimeDir:  cfg.RuntimeDir,
		extraEnv:    cfg.Environment,
		outputDir:   outputDir,
		logger:      log,
	}
}

// Start launches one script. The returned handle must be either waited on
// or released; released scripts are reaped in the background.
//
// The context is accepted for API symmetry but is deliberately not wired to
// process termination: a deadline never kills a running script.
func (s *ExecSpawner) Start(ctx context.Context, script types.ScriptDescriptor) (interfaces.ScriptHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(s.interpreter, script.Path)
	cmd.Env = s.buildEnv()

	output, err := s.openOutput(script)
	if err != nil {
		s.logger.Debug("script output capture unavailable",
			logger.WithField("script", script.Display()),
			logger.WithField("error", err))
		output = nil
	}
	if output != nil {
		cmd.Stdout = output
		cmd.Stderr = output
	}

	if err := cmd.Start(); err != nil {
		if output != nil {
			output.Close()
		}
		return nil, fmt.Errorf("failed to start %s: %w", script.Display(), err)
	}

	return &execHandle{
		cmd:    cmd,
		output: output,
		script: script,
		logger: s.logger,
	}, nil
}

// buildEnv assembles the environment once: inherited variables, PATH
// augmented with the runtime dir, then configured overrides.
func (s *ExecSpawner) buildEnv() []string {
	s.once.Do(func() {
		env := os.Environ()

		if s.runtimeDir != "" {
			path := os.Getenv("PATH")
			env = append(env, "PATH="+path+string(os.PathListSeparator)+s.runtimeDir)
		}

		for k, v := range s.extraEnv {
			env = append(env, k+"="+v)
		}

		s.env = env
	})
	return s.env
}

func (s *ExecSpawner) openOutput(script types.ScriptDescriptor) (*os.File, error) {
	if s.outputDir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return nil, err
	}

	name := script.Name
	if script.Module != "" {
		name = script.Module + "_" + script.Name
	}
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")

	return os.OpenFile(
		filepath.Join(s.outputDir, name+".log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0644,
	)
}

// execHandle wraps one started subprocess
type execHandle struct {
	cmd    *exec.Cmd
	output *os.File
	script types.ScriptDescriptor
	logger logger.Logger

	waitOnce sync.Once
	waitErr  error
}

// Wait blocks until the script exits and logs its outcome
func (h *execHandle) Wait() error {
	h.waitOnce.Do(func() {
		h.waitErr = h.cmd.Wait()
		h.finish(h.waitErr)
	})
	return h.waitErr
}

// Release detaches from the script; it keeps running and is reaped in the
// background to avoid leaving zombies.
func (h *execHandle) Release() {
	go func() {
		h.waitOnce.Do(func() {
			h.waitErr = h.cmd.Wait()
			h.finish(h.waitErr)
		})
	}()
}

// PID returns the subprocess id
func (h *execHandle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *execHandle) finish(err error) {
	if h.output != nil {
		h.output.Close()
	}
	if err != nil {
		h.logger.Debug("script exited",
			logger.WithField("script", h.script.Display()),
			logger.WithField("status", err))
		return
	}
	h.logger.Debug("script exited",
		logger.WithField("script", h.script.Display()),
		logger.WithField("status", "ok"))
}
