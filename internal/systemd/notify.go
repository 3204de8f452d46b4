// Package systemd integrates the daemon with the service manager.
// All calls degrade to no-ops when not running under systemd.
package systemd

import (
	"context"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// NotifyReady tells the service manager that startup is complete.
func NotifyReady(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		logger.Warn("failed to send ready notification", "error", err)
		return
	}
	if sent {
		logger.Debug("notified service manager: ready")
	}
}

// NotifyStopping tells the service manager that shutdown has begun.
func NotifyStopping(logger *slog.Logger) {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		logger.Warn("failed to send stopping notification", "error", err)
	}
}

// RunWatchdog sends keep-alive pings when the unit has WatchdogSec set.
// It returns immediately when the watchdog is not enabled and otherwise
// blocks until ctx is cancelled.
func RunWatchdog(ctx context.Context, logger *slog.Logger) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("failed to query watchdog configuration", "error", err)
		return
	}
	if interval == 0 {
		return
	}

	// Ping at half the configured timeout.
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	logger.Debug("watchdog enabled", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
				logger.Warn("failed to send watchdog ping", "error", err)
			}
		}
	}
}
