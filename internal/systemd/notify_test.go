package systemd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyOutsideSystemd(t *testing.T) {
	// Without NOTIFY_SOCKET these must be silent no-ops.
	os.Unsetenv("NOTIFY_SOCKET")

	NotifyReady(testLogger())
	NotifyStopping(testLogger())
}

func TestRunWatchdogDisabled(t *testing.T) {
	os.Unsetenv("WATCHDOG_USEC")
	os.Unsetenv("WATCHDOG_PID")

	done := make(chan struct{})
	go func() {
		RunWatchdog(context.Background(), testLogger())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunWatchdog should return immediately when the watchdog is disabled")
	}
}
