// Package systemd reports daemon lifecycle to the service manager.
package systemd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends sd_notify messages. Outside systemd every call is a no-op.
type Notifier struct {
	logger   *slog.Logger
	notify   func(unsetEnvironment bool, state string) (bool, error)
	watchdog func(unsetEnvironment bool) (time.Duration, error)
}

// NewNotifier creates a notifier bound to NOTIFY_SOCKET.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{
		logger:   logger,
		notify:   daemon.SdNotify,
		watchdog: daemon.SdWatchdogEnabled,
	}
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(false, state)
	switch {
	case err != nil:
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
	case sent:
		n.logger.Debug("sd_notify sent", "state", state)
	}
}

// Ready tells systemd startup has finished.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Stopping tells systemd shutdown has begun.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(format string, args ...any) {
	n.send("STATUS=" + fmt.Sprintf(format, args...))
}

// RunWatchdog pings the watchdog at half the configured interval while
// alive reports progress. It returns immediately when no watchdog is set.
func (n *Notifier) RunWatchdog(ctx context.Context, alive func() bool) {
	interval, err := n.watchdog(false)
	if err != nil {
		n.logger.Warn("Invalid watchdog configuration", "error", err)
		return
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	n.logger.Info("Watchdog enabled", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if alive() {
				n.send(daemon.SdNotifyWatchdog)
			} else {
				n.logger.Warn("Control loop stalled, withholding watchdog ping")
			}
		}
	}
}
