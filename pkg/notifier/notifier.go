// Package notifier provides phase event notification functionality
package notifier

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/stagehand/stagehand/pkg/logger"
	"github.com/stagehand/stagehand/pkg/types"
)

// PhaseNotifier sends desktop notifications for phase events
type PhaseNotifier struct {
	enabled        bool
	notifyTimeout  bool
	notifyComplete bool
	logger         logger.Logger
}

// Config represents notification configuration
type Config struct {
	Enabled        bool
	NotifyTimeout  bool
	NotifyComplete bool
}

// ConfigFrom derives notifier settings from the main configuration.
// Timeout notifications default to on, completion ones to off.
func ConfigFrom(cfg *types.NotificationConfig) Config {
	if cfg == nil || cfg.Enabled == nil || !*cfg.Enabled {
		return Config{}
	}

	out := Config{Enabled: true, NotifyTimeout: true}
	if cfg.NotifyTimeout != nil {
		out.NotifyTimeout = *cfg.NotifyTimeout
	}
	if cfg.NotifyComplete != nil {
		out.NotifyComplete = *cfg.NotifyComplete
	}
	return out
}

// New creates a phase notifier
func New(config Config, log logger.Logger) *PhaseNotifier {
	return &PhaseNotifier{
		enabled:        config.Enabled,
		notifyTimeout:  config.NotifyTimeout,
		notifyComplete: config.NotifyComplete,
		logger:         log,
	}
}

// NotifyPhaseTimeout notifies that a governed phase hit its deadline
func (n *PhaseNotifier) NotifyPhaseTimeout(phase types.Phase) {
	if !n.enabled || !n.notifyTimeout {
		return
	}

	title := "Stagehand: phase timeout"
	message := fmt.Sprintf("%s scripts exceeded the blocking deadline", phase)
	n.send(title, message)
}

// NotifyPhaseComplete notifies that a phase finished dispatching
func (n *PhaseNotifier) NotifyPhaseComplete(phase types.Phase, duration time.Duration) {
	if !n.enabled || !n.notifyComplete {
		return
	}

	title := "Stagehand: phase complete"
	message := fmt.Sprintf("%s done in %s", phase, formatDuration(duration))
	n.send(title, message)
}

func (n *PhaseNotifier) send(title, message string) {
	if err := beeep.Notify(title, message, ""); err != nil {
		n.logger.Debug("failed to send notification", logger.WithField("error", err))
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}
