// Package logging provides structured logging with per-module log level configuration.
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"ec":    "debug", // Per-module overrides
//			"input": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("mymodule")
//	logger.Info("Starting up", "timeout", cfg.IdleTimeout)
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t keylightd              # All keylightd logs
//	journalctl -t keylightd -f           # Follow live
//	journalctl -t keylightd MODULE=ec    # Filter by structured field
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//	ec = "debug"
//	input = "warn"
package logging
