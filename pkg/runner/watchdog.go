package runner

import (
	"time"
)

// Watchdog is a one-shot timer that fires at an absolute deadline. It only
// bounds a blocking wait; it never terminates the awaited script.
type Watchdog struct {
	timer *time.Timer
}

// StartWatchdog begins a timer firing at deadline. A deadline already in
// the past fires immediately.
func StartWatchdog(deadline time.Time) *Watchdog {
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	return &Watchdog{timer: time.NewTimer(d)}
}

// Fired returns the channel that receives exactly one value at the deadline
func (w *Watchdog) Fired() <-chan time.Time {
	return w.timer.C
}

// Stop terminates the timer if it has not yet fired
func (w *Watchdog) Stop() {
	w.timer.Stop()
}
