// Package activity implements the daemon's core state machine: it
// turns input activity into backlight on/off transitions, debouncing
// bursts of events so the slow embedded controller sees exactly one
// write per transition.
package activity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/keylightd/internal/ec"
	"github.com/smazurov/keylightd/internal/events"
	"github.com/smazurov/keylightd/internal/input"
)

// offRetryBackoff spaces retries of a failed off-write. Re-arming with
// the already-expired deadline would hammer the controller in a tight
// loop.
const offRetryBackoff = time.Second

// Config is the immutable runtime configuration of the controller.
// Values are validated before they get here; brightness is clamped to
// [0,100] by the hardware channel regardless.
type Config struct {
	Brightness     int
	IdleTimeout    time.Duration
	DriveIndicator bool
	Fade           bool
}

// Waiter is the blocking multiplexed wait primitive the controller
// runs on. *input.Set implements it.
type Waiter interface {
	Wait(deadline time.Time) (input.Wake, error)
	Drain(id string)
	Interrupt()
}

// Controller owns the activity state, the pending idle deadline, and
// the exclusive use of the hardware channel. It is single-threaded:
// everything happens on the goroutine that calls Run.
type Controller struct {
	ch     ec.Channel
	waiter Waiter
	bus    *events.Bus
	logger *slog.Logger
	now    func() time.Time

	cfgMu sync.Mutex
	cfg   Config

	active   bool
	deadline time.Time // zero when no deadline is armed
	lit      bool      // last on-write reached the hardware
}

// New creates a controller. The channel, waiter, and bus are owned by
// the caller; the controller only uses them from its Run goroutine.
func New(cfg Config, ch ec.Channel, waiter Waiter, bus *events.Bus, logger *slog.Logger) *Controller {
	return &Controller{
		ch:     ch,
		waiter: waiter,
		bus:    bus,
		logger: logger,
		now:    time.Now,
		cfg:    cfg,
	}
}

// UpdateConfig replaces the runtime configuration. Safe to call from
// another goroutine; the new values take effect on the next state
// transition.
func (c *Controller) UpdateConfig(cfg Config) {
	c.cfgMu.Lock()
	c.cfg = cfg
	c.cfgMu.Unlock()
	c.logger.Info("configuration updated",
		"brightness", cfg.Brightness,
		"idle_timeout", cfg.IdleTimeout,
		"drive_indicator", cfg.DriveIndicator)
}

func (c *Controller) config() Config {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	return c.cfg
}

// Run executes the control loop until ctx is cancelled. On exit it
// makes a best-effort attempt to switch everything off; the process is
// exiting regardless, so failures are only logged.
func (c *Controller) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, c.waiter.Interrupt)
	defer stop()

	c.logger.Info("activity controller started",
		"brightness", c.config().Brightness,
		"idle_timeout", c.config().IdleTimeout)

	for {
		wake, err := c.waiter.Wait(c.deadline)
		if err != nil {
			return err
		}

		if wake.Kind == input.WakeShutdown {
			c.shutdown()
			return ctx.Err()
		}

		c.handle(wake)
	}
}

// handle applies one wake reason to the state machine.
func (c *Controller) handle(wake input.Wake) {
	switch wake.Kind {
	case input.WakeActivity:
		c.waiter.Drain(wake.ID)
		c.onActivity(wake.ID)

	case input.WakeTimeout:
		c.onTimeout()

	case input.WakeDeviceAdded, input.WakeDeviceRemoved:
		// Topology changes never affect the activity state. With an
		// empty device set the armed deadline still fires normally.
		c.logger.Debug("device topology changed", "reason", wake.Kind.String(), "id", wake.ID)
	}
}

func (c *Controller) onActivity(sourceID string) {
	cfg := c.config()

	if c.active {
		// Debounced: re-arm the deadline only. The one exception is a
		// previous on-write that never reached the hardware; retry it.
		if !c.lit {
			c.writeOn(cfg, sourceID)
		}
		c.deadline = c.now().Add(cfg.IdleTimeout)
		return
	}

	c.logger.Info("activity detected, backlight on", "source", sourceID)
	c.writeOn(cfg, sourceID)
	c.active = true
	c.deadline = c.now().Add(cfg.IdleTimeout)
}

func (c *Controller) onTimeout() {
	if !c.active {
		// Spurious timeout while idle; nothing to switch off.
		c.deadline = time.Time{}
		return
	}

	cfg := c.config()
	c.logger.Info("idle timeout reached, backlight off", "idle_timeout", cfg.IdleTimeout)

	if !c.writeOff(cfg) {
		// The off-write failed. Stay active and re-check shortly so
		// the backlight does not stay lit forever.
		c.deadline = c.now().Add(offRetryBackoff)
		return
	}

	c.active = false
	c.deadline = time.Time{}
	c.bus.Publish(events.StateChangedEvent{Active: false})
}

// writeOn drives the backlight to the configured level and, if
// configured, the indicator on. Transient controller failures are
// absorbed; lit records whether the hardware actually changed.
func (c *Controller) writeOn(cfg Config, sourceID string) {
	var err error
	if cfg.Fade {
		err = ec.FadeTo(c.ch, cfg.Brightness, 0)
	} else {
		err = c.ch.SetBrightness(cfg.Brightness)
	}
	if err != nil {
		c.reportHardwareError("set_brightness", err)
		c.lit = false
	} else {
		c.lit = true
		c.bus.Publish(events.StateChangedEvent{
			Active:     true,
			Brightness: cfg.Brightness,
			SourceID:   sourceID,
		})
	}

	if cfg.DriveIndicator {
		if err := c.ch.SetIndicator(true); err != nil {
			c.reportHardwareError("set_indicator", err)
		}
	}
}

// writeOff drives the backlight dark. Returns false when the write
// failed and should be retried.
func (c *Controller) writeOff(cfg Config) bool {
	var err error
	if cfg.Fade {
		err = ec.FadeTo(c.ch, 0, 0)
	} else {
		err = c.ch.SetBrightness(0)
	}
	if err != nil {
		c.reportHardwareError("set_brightness", err)
		return false
	}
	c.lit = false

	if cfg.DriveIndicator {
		if err := c.ch.SetIndicator(false); err != nil {
			c.reportHardwareError("set_indicator", err)
		}
	}
	return true
}

// shutdown restores the hardware to dark on the way out.
func (c *Controller) shutdown() {
	c.logger.Info("shutting down, restoring backlight")
	cfg := c.config()
	if err := c.ch.SetBrightness(0); err != nil {
		c.logger.Warn("failed to restore backlight on shutdown", "error", err)
	}
	if cfg.DriveIndicator {
		if err := c.ch.SetIndicator(false); err != nil {
			c.logger.Warn("failed to restore indicator on shutdown", "error", err)
		}
	}
}

func (c *Controller) reportHardwareError(op string, err error) {
	kind := "error"
	switch {
	case errors.Is(err, ec.ErrControllerBusy):
		kind = "busy"
	case errors.Is(err, ec.ErrControllerTimeout):
		kind = "timeout"
	}
	c.logger.Warn("embedded controller transaction failed", "op", op, "kind", kind, "error", err)
	c.bus.Publish(events.HardwareErrorEvent{Op: op, Kind: kind})
}
