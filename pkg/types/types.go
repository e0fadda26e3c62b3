// Package types provides core types and configurations for Stagehand
package types

import (
	"time"
)

// Phase identifies a stage of the host process lifecycle
type Phase string

const (
	PhaseEarlyInit    Phase = "early-init"
	PhasePostFsData   Phase = "post-fs-data"
	PhaseServices     Phase = "services"
	PhaseBootComplete Phase = "boot-complete"
)

// DefaultGovernedPhase is the one phase subject to deadline enforcement
const DefaultGovernedPhase = PhasePostFsData

// DefaultDeadlineWindow bounds how long the governed phase may block startup
const DefaultDeadlineWindow = 35 * time.Second

// DispatchMode determines whether a script is awaited or merely launched
type DispatchMode string

const (
	DispatchBlocking      DispatchMode = "blocking"
	DispatchFireAndForget DispatchMode = "fire-and-forget"
)

// LogLevel represents logging verbosity levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ScriptDescriptor identifies one runnable script within a phase batch.
// Ordering across descriptors is significant and preserved by every
// component that handles them.
type ScriptDescriptor struct {
	// Name is the display name used in logs (file name or module name)
	Name string `json:"name" yaml:"name"`
	// Path is the resolved executable path handed to the spawner
	Path string `json:"path" yaml:"path"`
	// Module is set when the descriptor came from a module source
	Module string `json:"module,omitempty" yaml:"module,omitempty"`
}

// Display returns the log-facing name for the script
func (d ScriptDescriptor) Display() string {
	if d.Module != "" {
		return d.Module + "/" + d.Name
	}
	return d.Name
}

// NotificationConfig controls desktop notifications for phase events
type NotificationConfig struct {
	Enabled        *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	NotifyTimeout  *bool `json:"notifyTimeout,omitempty" yaml:"notifyTimeout,omitempty"`
	NotifyComplete *bool `json:"notifyComplete,omitempty" yaml:"notifyComplete,omitempty"`
}

// TriggerConfig controls the foreground trigger-watcher mode
type TriggerConfig struct {
	// Dir is watched for files named after phases; creating one runs the phase
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// RemoveAfterRun deletes the trigger file once its phase has been dispatched
	RemoveAfterRun *bool `json:"removeAfterRun,omitempty" yaml:"removeAfterRun,omitempty"`
}

// StagehandConfig is the root configuration
type StagehandConfig struct {
	Version string `json:"version" yaml:"version"`

	// ScriptRoot holds one <phase>.d directory per phase
	ScriptRoot string `json:"scriptRoot" yaml:"scriptRoot"`
	// ModuleRoot holds one directory per module, each optionally carrying
	// a <phase>.sh script
	ModuleRoot string `json:"moduleRoot,omitempty" yaml:"moduleRoot,omitempty"`
	// Modules pins the module order; empty means lexical enumeration of
	// ModuleRoot
	Modules []string `json:"modules,omitempty" yaml:"modules,omitempty"`

	// GovernedPhase overrides the phase subject to the deadline
	GovernedPhase Phase `json:"governedPhase,omitempty" yaml:"governedPhase,omitempty"`
	// DeadlineWindowMs overrides the deadline window, in milliseconds
	DeadlineWindowMs *int `json:"deadlineWindowMs,omitempty" yaml:"deadlineWindowMs,omitempty"`

	// Interpreter is the shell every script is executed through
	Interpreter string `json:"interpreter,omitempty" yaml:"interpreter,omitempty"`
	// RuntimeDir is appended to PATH for every spawned script
	RuntimeDir string `json:"runtimeDir,omitempty" yaml:"runtimeDir,omitempty"`
	// Environment is merged into every spawned script's environment
	Environment map[string]string `json:"environment,omitempty" yaml:"environment,omitempty"`

	// IgnorePatterns filters directory-source script names (glob syntax)
	IgnorePatterns []string `json:"ignorePatterns,omitempty" yaml:"ignorePatterns,omitempty"`

	StateDir      string              `json:"stateDir,omitempty" yaml:"stateDir,omitempty"`
	LogFile       string              `json:"logFile,omitempty" yaml:"logFile,omitempty"`
	LogLevel      LogLevel            `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	Notifications *NotificationConfig `json:"notifications,omitempty" yaml:"notifications,omitempty"`
	Trigger       *TriggerConfig      `json:"trigger,omitempty" yaml:"trigger,omitempty"`
}

// DeadlineWindow returns the configured window with the default applied
func (c *StagehandConfig) DeadlineWindow() time.Duration {
	if c.DeadlineWindowMs != nil && *c.DeadlineWindowMs > 0 {
		return time.Duration(*c.DeadlineWindowMs) * time.Millisecond
	}
	return DefaultDeadlineWindow
}

// Governed returns the configured governed phase with the default applied
func (c *StagehandConfig) Governed() Phase {
	if c.GovernedPhase != "" {
		return c.GovernedPhase
	}
	return DefaultGovernedPhase
}

// IsGoverned reports whether the given phase is the deadline-governed one
func (c *StagehandConfig) IsGoverned(phase Phase) bool {
	return phase == c.Governed()
}
