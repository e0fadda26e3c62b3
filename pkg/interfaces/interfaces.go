// Package interfaces provides abstractions for dependency injection and testability
package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/stagehand/stagehand/pkg/types"
)

// ErrSourceUnavailable is returned by a ScriptSource whose backing location
// does not exist. It is not a failure: the invocation completes with zero
// dispatches.
var ErrSourceUnavailable = errors.New("script source unavailable")

// ScriptSource yields the ordered script batch for a phase
type ScriptSource interface {
	// List returns runnable descriptors in dispatch order. A missing
	// backing location returns ErrSourceUnavailable; an existing but
	// empty one returns an empty slice.
	List(phase types.Phase) ([]types.ScriptDescriptor, error)
	// Name identifies the source in logs ("common", "modules")
	Name() string
}

// ScriptHandle represents one started script subprocess
type ScriptHandle interface {
	// Wait blocks until the script exits
	Wait() error
	// Release detaches from the script; it keeps running and is reaped
	// in the background
	Release()
	// PID returns the subprocess id, 0 if unknown
	PID() int
}

// Spawner starts script subprocesses through the interpreter layer
type Spawner interface {
	Start(ctx context.Context, script types.ScriptDescriptor) (ScriptHandle, error)
}

// RunNotifier receives phase-level events for user-facing notification.
// Purely observational; implementations must not affect control flow.
type RunNotifier interface {
	NotifyPhaseTimeout(phase types.Phase)
	NotifyPhaseComplete(phase types.Phase, duration time.Duration)
}
