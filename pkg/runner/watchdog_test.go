package runner_test

import (
	"testing"
	"time"

	"github.com/stagehand/stagehand/pkg/runner"
)

func TestWatchdog_FiresAtDeadlineNotBefore(t *testing.T) {
	start := time.Now()
	w := runner.StartWatchdog(start.Add(80 * time.Millisecond))
	defer w.Stop()

	select {
	case fired := <-w.Fired():
		if elapsed := fired.Sub(start); elapsed < 80*time.Millisecond {
			t.Errorf("watchdog fired early after %v", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog never fired")
	}
}

func TestWatchdog_StopPreventsFiring(t *testing.T) {
	w := runner.StartWatchdog(time.Now().Add(50 * time.Millisecond))
	w.Stop()

	select {
	case <-w.Fired():
		t.Error("stopped watchdog must not fire")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatchdog_PastDeadlineFiresImmediately(t *testing.T) {
	w := runner.StartWatchdog(time.Now().Add(-time.Second))
	defer w.Stop()

	select {
	case <-w.Fired():
	case <-time.After(time.Second):
		t.Error("past deadline should fire immediately")
	}
}
