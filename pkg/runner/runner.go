// Package runner provides the deadline-governed phase script engine
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stagehand/stagehand/pkg/interfaces"
	"github.com/stagehand/stagehand/pkg/logger"
	"github.com/stagehand/stagehand/pkg/types"
)

// Report summarizes one invocation for run history and notifications.
// It carries no per-script outcomes; script failures never surface here.
type Report struct {
	Invocation string             `json:"invocation"`
	Phase      types.Phase        `json:"phase"`
	Source     string             `json:"source"`
	Mode       types.DispatchMode `json:"mode"`
	Dispatched int                `json:"dispatched"`
	Awaited    int                `json:"awaited"`
	TimedOut   bool               `json:"timedOut"`
	Duration   time.Duration      `json:"duration"`
}

// PhaseRunner executes phase script batches. For the governed phase it
// races a watchdog against sequential blocking execution and demotes to
// fire-and-forget once the deadline elapses; all other phases dispatch
// fire-and-forget throughout.
type PhaseRunner struct {
	spawner   interfaces.Spawner
	deadlines *DeadlineState
	governed  types.Phase
	window    time.Duration
	logger    logger.Logger
	notifier  interfaces.RunNotifier
}

// New creates a phase runner. deadlines must be the one state shared by
// every invocation of the governed phase in this process lifetime; nil
// makes every phase ungoverned.
func New(
	spawner interfaces.Spawner,
	deadlines *DeadlineState,
	governed types.Phase,
	window time.Duration,
	log logger.Logger,
) *PhaseRunner {
	return &PhaseRunner{
		spawner:   spawner,
		deadlines: deadlines,
		governed:  governed,
		window:    window,
		logger:    log,
	}
}

// SetNotifier attaches an optional phase-event notifier
func (r *PhaseRunner) SetNotifier(n interfaces.RunNotifier) {
	r.notifier = n
}

// Run executes every script the source yields for the phase, honoring the
// deadline rule, and returns once all dispatched work has been launched
// (and, for a governed run, completed or timed out). Script failures are
// logged, never returned.
func (r *PhaseRunner) Run(ctx context.Context, phase types.Phase, source interfaces.ScriptSource) (*Report, error) {
	start := time.Now()
	log := r.logger.WithPhase(string(phase))
	report := &Report{
		Invocation: uuid.New().String(),
		Phase:      phase,
		Source:     source.Name(),
		Mode:       types.DispatchFireAndForget,
	}

	scripts, err := source.List(phase)
	if err != nil {
		if errors.Is(err, interfaces.ErrSourceUnavailable) {
			// Not an error: zero dispatches, deadline state untouched
			log.Debug("script source unavailable", logger.WithField("source", source.Name()))
			return report, nil
		}
		return report, err
	}

	governed := r.deadlines != nil && phase == r.governed

	var deadline time.Time
	if governed {
		now := time.Now()
		// The first governed call establishes the deadline, even when
		// the batch turns out to be empty: the second batch of the same
		// phase must observe it.
		deadline = r.deadlines.EnsureInitialized(now, r.window)
		if r.deadlines.IsExpired(now) {
			// Demotion carried over from a prior batch or from elapsed
			// wall time; the whole invocation runs unawaited.
			log.Info("deadline already elapsed, dispatching without blocking",
				logger.WithField("source", source.Name()))
			governed = false
		}
	}

	log.Info("running scripts",
		logger.WithField("source", source.Name()),
		logger.WithField("count", len(scripts)),
		logger.WithField("invocation", report.Invocation))

	if len(scripts) == 0 {
		report.Duration = time.Since(start)
		return report, nil
	}

	if governed {
		report.Mode = types.DispatchBlocking

		// The sequencing loop runs in its own worker so the caller
		// blocks on exactly one completion signal, not per script. The
		// worker is panic-protected: a fatal condition inside it ends
		// the worker, not the process, and the scripts it never reached
		// are dispatched without waiting.
		next := 0
		worker := NewSafeGroup(log)
		worker.Go(func() error {
			r.runGoverned(ctx, log, scripts, deadline, report, &next)
			return nil
		})
		if err := worker.Wait(); err != nil {
			log.Error("governed worker failed, dispatching remaining scripts without blocking",
				logger.WithField("error", err))

			rest := NewSafeGroup(log)
			rest.Go(func() error {
				for _, script := range scripts[next:] {
					r.dispatchNoWait(ctx, log, script, report)
				}
				return nil
			})
			if err := rest.Wait(); err != nil {
				log.Error("fire-and-forget dispatch failed", logger.WithField("error", err))
			}
		}
	} else {
		for _, script := range scripts {
			r.dispatchNoWait(ctx, log, script, report)
		}
	}

	report.Duration = time.Since(start)
	log.Info("scripts dispatched",
		logger.WithField("source", source.Name()),
		logger.WithField("dispatched", report.Dispatched),
		logger.WithField("awaited", report.Awaited),
		logger.WithField("duration", report.Duration.Round(time.Millisecond)))

	if r.notifier != nil {
		if report.TimedOut {
			r.notifier.NotifyPhaseTimeout(phase)
		}
		r.notifier.NotifyPhaseComplete(phase, report.Duration)
	}

	return report, nil
}

// runGoverned dispatches scripts in order, awaiting each one, racing the
// watchdog against every wait. Once the watchdog fires the remaining
// scripts are dispatched without waiting; the script active at that moment
// keeps running undisturbed. next always holds the index of the first
// script this call has not yet handled.
func (r *PhaseRunner) runGoverned(
	ctx context.Context,
	log logger.Logger,
	scripts []types.ScriptDescriptor,
	deadline time.Time,
	report *Report,
	next *int,
) {
	watchdog := StartWatchdog(deadline)
	defer watchdog.Stop()

	expired := false
	for i, script := range scripts {
		*next = i + 1

		if expired {
			r.dispatchNoWait(ctx, log, script, report)
			continue
		}

		log.Info("exec", logger.WithField("script", script.Display()))
		handle, err := r.spawner.Start(ctx, script)
		if err != nil {
			// Treated as instant completion; does not trigger demotion
			log.Warn("failed to spawn script",
				logger.WithField("script", script.Display()),
				logger.WithField("error", err))
			continue
		}
		report.Dispatched++
		log.Debug("script started",
			logger.WithField("script", script.Display()),
			logger.WithField("pid", handle.PID()))

		exited := make(chan struct{})
		waiter := NewSafeGroup(log)
		waiter.Go(func() error {
			defer close(exited)
			handle.Wait()
			return nil
		})

		select {
		case <-exited:
			report.Awaited++
		case <-watchdog.Fired():
			// Soft timeout: the running script is not signaled, just no
			// longer awaited. Its wait goroutine reaps it eventually.
			log.Warn("blocking phase timeout, remaining scripts will not be awaited",
				logger.WithField("script", script.Display()))
			r.deadlines.MarkExpired()
			report.TimedOut = true
			expired = true
		}
	}
}

// dispatchNoWait starts a script fire-and-forget; the handle is released
// so the subprocess is reaped in the background.
func (r *PhaseRunner) dispatchNoWait(
	ctx context.Context,
	log logger.Logger,
	script types.ScriptDescriptor,
	report *Report,
) {
	log.Info("exec (no wait)", logger.WithField("script", script.Display()))
	handle, err := r.spawner.Start(ctx, script)
	if err != nil {
		log.Warn("failed to spawn script",
			logger.WithField("script", script.Display()),
			logger.WithField("error", err))
		return
	}
	log.Debug("script started",
		logger.WithField("script", script.Display()),
		logger.WithField("pid", handle.PID()))
	handle.Release()
	report.Dispatched++
}
