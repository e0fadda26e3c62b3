package runner

import (
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/stagehand/stagehand/pkg/logger"
)

// SafeGroup wraps errgroup.Group with panic recovery so a misbehaving
// spawner or script handle cannot take the host process down with it.
type SafeGroup struct {
	group  errgroup.Group
	logger logger.Logger
}

// NewSafeGroup creates a SafeGroup with panic recovery
func NewSafeGroup(log logger.Logger) *SafeGroup {
	return &SafeGroup{logger: log}
}

// Go runs the given function in a new goroutine with panic recovery.
// A panic is logged with its stack trace and converted to an error.
func (g *SafeGroup) Go(fn func() error) {
	g.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				g.logger.Error("goroutine panic recovered",
					logger.WithField("panic", r),
					logger.WithField("stack", string(debug.Stack())))
				err = fmt.Errorf("goroutine panic: %v", r)
			}
		}()

		return fn()
	})
}

// Wait blocks until all goroutines have completed and returns the first
// error encountered.
func (g *SafeGroup) Wait() error {
	return g.group.Wait()
}
