package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/keylightd/cmd"
	"github.com/smazurov/keylightd/internal/activity"
	"github.com/smazurov/keylightd/internal/config"
	"github.com/smazurov/keylightd/internal/ec"
	"github.com/smazurov/keylightd/internal/events"
	"github.com/smazurov/keylightd/internal/input"
	"github.com/smazurov/keylightd/internal/logging"
	"github.com/smazurov/keylightd/internal/metrics"
	"github.com/smazurov/keylightd/internal/metrics/exporters"
	"github.com/smazurov/keylightd/internal/systemd"
	"github.com/smazurov/keylightd/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"/etc/keylightd.toml"`

	// Backlight settings
	Brightness int  `help:"Backlight brightness while active (percent)" short:"b" default:"30" toml:"backlight.brightness" env:"BRIGHTNESS"`
	Timeout    int  `help:"Idle timeout in seconds" short:"t" default:"10" toml:"backlight.timeout" env:"TIMEOUT"`
	Fade       bool `help:"Fade between brightness levels instead of jumping" default:"true" toml:"backlight.fade" env:"FADE"`
	PowerLed   bool `help:"Drive the power LED as an activity indicator" default:"false" toml:"backlight.power_led" env:"POWER_LED"`

	// Embedded controller settings
	EcInterface string `help:"Embedded controller interface (auto, cros, port, noop)" default:"auto" toml:"ec.interface" env:"EC_INTERFACE"`

	// Metrics settings
	MetricsListen string `help:"Prometheus metrics listen address, empty to disable" default:"" toml:"metrics.listen" env:"METRICS_LISTEN"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingEc       string `help:"Embedded controller logging level" default:"info" toml:"logging.ec" env:"LOGGING_EC"`
	LoggingInput    string `help:"Input device logging level" default:"info" toml:"logging.input" env:"LOGGING_INPUT"`
	LoggingActivity string `help:"Activity controller logging level" default:"info" toml:"logging.activity" env:"LOGGING_ACTIVITY"`
}

func main() {
	// Create Huma CLI. The callback runs inside cli.Run(), after flag
	// parsing, so cli.Root() carries the Changed state LoadConfig needs
	// to keep explicit CLI flags above file and env values.
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"ec":       opts.LoggingEc,
				"input":    opts.LoggingInput,
				"activity": opts.LoggingActivity,
			},
		})

		logger := logging.GetLogger("main")

		if opts.Timeout < 1 {
			logger.Error("Idle timeout must be at least one second", "timeout", opts.Timeout)
			os.Exit(1)
		}
		if opts.Brightness < 0 || opts.Brightness > 100 {
			logger.Error("Brightness must be between 0 and 100", "brightness", opts.Brightness)
			os.Exit(1)
		}

		// Create event bus and feed the metrics layer from it
		eventBus := events.New()
		unobserve := metrics.Observe(eventBus)

		// Open the embedded controller
		channel, err := ec.New(opts.EcInterface, logging.GetLogger("ec"))
		if err != nil {
			if errors.Is(err, ec.ErrPermissionDenied) {
				logger.Error("Embedded controller access denied, the daemon must run as root", "error", err)
			} else {
				logger.Error("Failed to open embedded controller", "error", err)
			}
			os.Exit(1)
		}

		// Build the watched input set
		inputSet, err := input.NewSet(eventBus, logging.GetLogger("input"))
		if err != nil {
			logger.Error("Failed to create input set", "error", err)
			os.Exit(1)
		}
		if discoverErr := inputSet.Discover(); discoverErr != nil {
			logger.Warn("Input device discovery failed", "error", discoverErr)
		}
		if inputSet.Count() == 0 {
			logger.Warn("No activity sources found, waiting for hot-plug events")
		}
		metrics.SetDeviceCount(inputSet.Count())

		controller := activity.New(activity.Config{
			Brightness:     opts.Brightness,
			IdleTimeout:    time.Duration(opts.Timeout) * time.Second,
			DriveIndicator: opts.PowerLed,
			Fade:           opts.Fade,
		}, channel, inputSet, eventBus, logging.GetLogger("activity"))

		// Reload backlight settings when the config file changes
		watcher := config.NewConfigWatcher(
			opts.Config,
			config.LoadSettings,
			logging.GetLogger("main"),
		)
		watcher.OnReload(func(settings config.Settings) {
			logger.Info("Applying reloaded settings",
				"brightness", settings.Brightness,
				"timeout", settings.Timeout)
			controller.UpdateConfig(activity.Config{
				Brightness:     settings.Brightness,
				IdleTimeout:    time.Duration(settings.Timeout) * time.Second,
				DriveIndicator: settings.PowerLED,
				Fade:           settings.Fade,
			})
		})

		var metricsServer *http.Server
		if opts.MetricsListen != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", exporters.HTTPHandler())
			metricsServer = &http.Server{
				Addr:              opts.MetricsListen,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
		}

		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			if startErr := watcher.Start(); startErr != nil {
				logger.Warn("Failed to start config watcher, hot-reload disabled", "error", startErr)
			}

			if metricsServer != nil {
				go func() {
					logger.Info("Starting metrics server", "addr", metricsServer.Addr)
					if serveErr := metricsServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
						logger.Warn("Metrics server failed", "error", serveErr)
					}
				}()
			}

			go systemd.RunWatchdog(ctx, logger)
			systemd.NotifyReady(logger)

			logger.Info("Watching for input activity",
				"devices", inputSet.Count(),
				"brightness", opts.Brightness,
				"timeout_seconds", opts.Timeout)

			if runErr := controller.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
				logger.Error("Activity controller failed", "error", runErr)
			}

			if closeErr := inputSet.Close(); closeErr != nil {
				logger.Warn("Failed to close input set", "error", closeErr)
			}
			if closeErr := channel.Close(); closeErr != nil {
				logger.Warn("Failed to close embedded controller", "error", closeErr)
			}
		})

		hooks.OnStop(func() {
			systemd.NotifyStopping(logger)
			logger.Info("Shutting down")

			cancel()

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}
			if metricsServer != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if stopErr := metricsServer.Shutdown(shutdownCtx); stopErr != nil {
					logger.Warn("Error stopping metrics server", "error", stopErr)
				}
			}
			unobserve()
		})
	})

	cli.Root().Version = version.String()

	// One-shot commands that talk to the hardware without the daemon
	cli.Root().AddCommand(cmd.CreateStatusCmd())
	cli.Root().AddCommand(cmd.CreateSetCmd())
	cli.Root().AddCommand(cmd.CreateDevicesCmd())

	// Run the CLI
	cli.Run()
}
