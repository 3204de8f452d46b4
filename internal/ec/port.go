//go:build linux

package ec

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

// ACPI embedded controller I/O ports and status bits.
const (
	portData   = 0x62
	portCmd    = 0x66 // command on write, status on read
	statusOBF  = 0x01 // output buffer full
	statusIBF  = 0x02 // input buffer full
	cmdReadEC  = 0x80
	cmdWriteEC = 0x81
)

// Device-specific EC register addresses.
const (
	regKeyboardBacklight = 0x93
	regIndicatorLED      = 0x95
)

// Poll budgets for the handshake. The pre-transaction poll is short: a
// controller that cannot even accept a command byte is reported busy so
// the caller can back off. The per-step polls are longer because the
// controller is slow but normally responsive once a command is in
// flight.
const (
	busyPollBudget = 16
	stepPollBudget = 200
	pollPause      = 100 * time.Microsecond
)

// ioPort abstracts byte-wide port I/O so the handshake can be tested
// against a scripted fake.
type ioPort interface {
	In(port uint16) (byte, error)
	Out(port uint16, value byte) error
	Close() error
}

// devPort implements ioPort over /dev/port, which exposes x86 I/O port
// space as a seekable file. This avoids needing ioperm/iopl.
type devPort struct {
	f *os.File
}

func openDevPort() (*devPort, error) {
	f, err := os.OpenFile("/dev/port", os.O_RDWR, 0)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return &devPort{f: f}, nil
}

func (p *devPort) In(port uint16) (byte, error) {
	buf := make([]byte, 1)
	if _, err := p.f.ReadAt(buf, int64(port)); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (p *devPort) Out(port uint16, value byte) error {
	_, err := p.f.WriteAt([]byte{value}, int64(port))
	return err
}

func (p *devPort) Close() error {
	return p.f.Close()
}

// PortChannel drives the EC through the ACPI port handshake. All
// transactions are strictly sequential; the single-owner design is the
// concurrency control, there is no locking.
type PortChannel struct {
	io     ioPort
	mapFn  MapFunc
	unmap  UnmapFunc
	pause  time.Duration
	logger *slog.Logger
}

// PortOption customizes a PortChannel.
type PortOption func(*PortChannel)

// WithMapping overrides the percent-to-register mapping.
func WithMapping(m MapFunc, u UnmapFunc) PortOption {
	return func(c *PortChannel) {
		c.mapFn = m
		c.unmap = u
	}
}

// OpenPort opens a session on the ACPI EC ports. It verifies the
// controller is reachable by reading the backlight register once.
func OpenPort(logger *slog.Logger, opts ...PortOption) (*PortChannel, error) {
	io, err := openDevPort()
	if err != nil {
		return nil, err
	}

	ch := newPortChannel(io, logger, opts...)

	if _, err := ch.Brightness(); err != nil {
		io.Close()
		return nil, fmt.Errorf("%w: backlight register unreadable: %v", ErrDeviceUnavailable, err)
	}

	logger.Info("connected to embedded controller", "interface", "port")
	return ch, nil
}

func newPortChannel(io ioPort, logger *slog.Logger, opts ...PortOption) *PortChannel {
	ch := &PortChannel{
		io:     io,
		mapFn:  LinearMap,
		unmap:  LinearUnmap,
		pause:  pollPause,
		logger: logger,
	}
	for _, opt := range opts {
		opt(ch)
	}
	return ch
}

// SetBrightness writes the backlight register.
func (c *PortChannel) SetBrightness(percent int) error {
	percent = clampPercent(percent)
	raw := c.mapFn(percent)
	if err := c.writeRegister(regKeyboardBacklight, raw); err != nil {
		return fmt.Errorf("set brightness: %w", err)
	}
	c.logger.Debug("backlight register written", "percent", percent, "raw", raw)
	return nil
}

// Brightness reads the backlight register back.
func (c *PortChannel) Brightness() (int, error) {
	raw, err := c.readRegister(regKeyboardBacklight)
	if err != nil {
		return 0, fmt.Errorf("get brightness: %w", err)
	}
	return c.unmap(raw), nil
}

// SetIndicator writes the indicator LED register.
func (c *PortChannel) SetIndicator(on bool) error {
	var raw byte
	if on {
		raw = 1
	}
	if err := c.writeRegister(regIndicatorLED, raw); err != nil {
		return fmt.Errorf("set indicator: %w", err)
	}
	return nil
}

// Close releases the port handle.
func (c *PortChannel) Close() error {
	return c.io.Close()
}

// writeRegister performs one EC write transaction:
// select the write command, send the register address, send the value.
// Each step waits for the controller's input buffer to empty first.
func (c *PortChannel) writeRegister(reg, value byte) error {
	if err := c.waitInputEmpty(busyPollBudget, ErrControllerBusy); err != nil {
		return err
	}
	if err := c.io.Out(portCmd, cmdWriteEC); err != nil {
		return err
	}
	if err := c.waitInputEmpty(stepPollBudget, ErrControllerTimeout); err != nil {
		return err
	}
	if err := c.io.Out(portData, reg); err != nil {
		return err
	}
	if err := c.waitInputEmpty(stepPollBudget, ErrControllerTimeout); err != nil {
		return err
	}
	return c.io.Out(portData, value)
}

// readRegister performs one EC read transaction: select the read
// command, send the register address, wait for the output buffer to
// fill, read the value.
func (c *PortChannel) readRegister(reg byte) (byte, error) {
	if err := c.waitInputEmpty(busyPollBudget, ErrControllerBusy); err != nil {
		return 0, err
	}
	if err := c.io.Out(portCmd, cmdReadEC); err != nil {
		return 0, err
	}
	if err := c.waitInputEmpty(stepPollBudget, ErrControllerTimeout); err != nil {
		return 0, err
	}
	if err := c.io.Out(portData, reg); err != nil {
		return 0, err
	}
	if err := c.waitOutputFull(stepPollBudget); err != nil {
		return 0, err
	}
	return c.io.In(portData)
}

// waitInputEmpty polls the status port until the input-buffer-full flag
// clears, bounded by budget iterations. The failure error distinguishes
// an immediate busy refusal from a prolonged non-response.
func (c *PortChannel) waitInputEmpty(budget int, failure error) error {
	for i := 0; i < budget; i++ {
		status, err := c.io.In(portCmd)
		if err != nil {
			return err
		}
		if status&statusIBF == 0 {
			return nil
		}
		time.Sleep(c.pause)
	}
	return failure
}

// waitOutputFull polls the status port until the output-buffer-full
// flag is set, bounded by budget iterations.
func (c *PortChannel) waitOutputFull(budget int) error {
	for i := 0; i < budget; i++ {
		status, err := c.io.In(portCmd)
		if err != nil {
			return err
		}
		if status&statusOBF != 0 {
			return nil
		}
		time.Sleep(c.pause)
	}
	return ErrControllerTimeout
}
