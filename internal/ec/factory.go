//go:build linux

package ec

import (
	"errors"
	"fmt"
	"log/slog"
)

// New creates a Channel for the requested interface. "auto" tries the
// cros_ec ioctl interface first and falls back to the ACPI port
// handshake; "noop" is for development machines without an EC.
func New(kind string, logger *slog.Logger) (Channel, error) {
	switch kind {
	case "auto":
		ch, crosErr := OpenCros(logger)
		if crosErr == nil {
			return ch, nil
		}
		if errors.Is(crosErr, ErrPermissionDenied) {
			return nil, crosErr
		}
		logger.Debug("cros_ec interface unavailable, trying port interface", "error", crosErr)

		port, portErr := OpenPort(logger)
		if portErr == nil {
			return port, nil
		}
		return nil, fmt.Errorf("no embedded controller interface available: cros_ec: %v; port: %w", crosErr, portErr)

	case "cros":
		return OpenCros(logger)

	case "port":
		return OpenPort(logger)

	case "noop":
		logger.Warn("using no-op embedded controller backend")
		return newNoop(logger), nil

	default:
		return nil, fmt.Errorf("unknown embedded controller interface %q", kind)
	}
}
