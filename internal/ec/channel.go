// Package ec drives the laptop's embedded controller: the keyboard
// backlight register and, on supported hardware, the power-button LED.
//
// Two backends are provided. The port backend speaks the ACPI EC
// handshake over the command/status and data I/O ports via /dev/port.
// The cros backend uses the ChromeOS EC ioctl interface of
// /dev/cros_ec found on Framework laptops.
package ec

import "errors"

// Sentinel errors for controller transactions and session setup.
var (
	// ErrControllerBusy means the controller refused the transaction
	// outright: its input buffer never emptied within the short
	// pre-transaction budget.
	ErrControllerBusy = errors.New("embedded controller busy")

	// ErrControllerTimeout means the controller accepted the
	// transaction but stopped responding mid-handshake.
	ErrControllerTimeout = errors.New("embedded controller timed out")

	// ErrPermissionDenied means the controller device node could not
	// be opened with the current privileges.
	ErrPermissionDenied = errors.New("permission denied opening embedded controller")

	// ErrDeviceUnavailable means no compatible controller was found.
	ErrDeviceUnavailable = errors.New("embedded controller unavailable")
)

// Channel is a session with the embedded controller. Implementations
// are not safe for concurrent use; the daemon gives the channel a
// single owner and never issues overlapping transactions.
type Channel interface {
	// SetBrightness sets the keyboard backlight level. Percent is
	// clamped to [0,100] before it reaches the hardware.
	SetBrightness(percent int) error

	// Brightness reads back the current backlight level in percent.
	Brightness() (int, error)

	// SetIndicator switches the secondary indicator LED. Backends
	// without an indicator return nil.
	SetIndicator(on bool) error

	// Close releases the controller session.
	Close() error
}

// clampPercent bounds a brightness value to [0,100].
func clampPercent(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
