// Package trigger fires lifecycle phases when trigger files appear
package trigger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/stagehand/stagehand/pkg/logger"
	"github.com/stagehand/stagehand/pkg/types"
)

// PhaseFunc runs one phase to completion
type PhaseFunc func(ctx context.Context, phase types.Phase)

// Watcher watches a trigger directory. Creating a file named after a phase
// runs that phase; phases run one at a time in event order.
type Watcher struct {
	watcher     *fsnotify.Watcher
	dir         string
	removeAfter bool
	run         PhaseFunc
	logger      logger.Logger

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// NewWatcher creates a trigger watcher over dir
func NewWatcher(dir string, removeAfterRun bool, run PhaseFunc, log logger.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:     fw,
		dir:         dir,
		removeAfter: removeAfterRun,
		run:         run,
		logger:      log,
		done:        make(chan struct{}),
	}, nil
}

// Start begins watching; the context bounds the watcher's lifetime
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return fmt.Errorf("trigger watcher already started")
	}
	w.started = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create trigger directory: %w", err)
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch trigger directory %s: %w", w.dir, err)
	}

	go w.processEvents(ctx)

	w.logger.Info("watching for phase triggers", logger.WithField("dir", w.dir))
	return nil
}

// Close stops the watcher and waits for the event loop to exit
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

// Wait blocks until the event loop has exited
func (w *Watcher) Wait() {
	<-w.done
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			w.handleTrigger(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("trigger watcher error", logger.WithField("error", err))
		}
	}
}

// handleTrigger runs the phase named by the trigger file. Phases run inline
// with the event loop, so two triggers never execute concurrently.
func (w *Watcher) handleTrigger(ctx context.Context, path string) {
	name := filepath.Base(path)
	if name == "" || name[0] == '.' {
		return
	}

	phase := types.Phase(name)
	w.logger.Info("phase triggered", logger.WithField("phase", phase))
	w.run(ctx, phase)

	if w.removeAfter {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			w.logger.Debug("failed to remove trigger file",
				logger.WithField("path", path),
				logger.WithField("error", err))
		}
	}
}
