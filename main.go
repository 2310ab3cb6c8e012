package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/blinkd/cmd"
	"github.com/smazurov/blinkd/internal/config"
	"github.com/smazurov/blinkd/internal/engine"
	"github.com/smazurov/blinkd/internal/events"
	"github.com/smazurov/blinkd/internal/hw"
	"github.com/smazurov/blinkd/internal/led"
	"github.com/smazurov/blinkd/internal/logging"
	"github.com/smazurov/blinkd/internal/metrics"
	"github.com/smazurov/blinkd/internal/metrics/exporters"
	"github.com/smazurov/blinkd/internal/status"
	"github.com/smazurov/blinkd/internal/systemd"
	"github.com/smazurov/blinkd/internal/version"
	"periph.io/x/conn/v3/physic"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Hardware settings
	HardwareBackend      string `help:"Pin backend" default:"auto" toml:"hardware.backend" env:"HARDWARE_BACKEND"`
	HardwarePins         string `help:"Comma-separated LED pin ids, in group order" default:"2,4,5" toml:"hardware.pins" env:"HARDWARE_PINS"`
	HardwareNames        string `help:"Comma-separated LED names, in pin order" default:"" toml:"hardware.names" env:"HARDWARE_NAMES"`
	HardwarePwmPins      string `help:"Override the PWM-capable pin list" default:"" toml:"hardware.pwm_pins" env:"HARDWARE_PWM_PINS"`
	HardwarePwmFrequency int    `help:"PWM carrier frequency in Hz" default:"1000" toml:"hardware.pwm_frequency_hz" env:"HARDWARE_PWM_FREQUENCY_HZ"`
	HardwareSysfsLeds    string `help:"pin=led mapping for the sysfs backend" default:"" toml:"hardware.sysfs_leds" env:"HARDWARE_SYSFS_LEDS"`

	// Loop settings
	LoopPollIntervalMs int `help:"Control loop poll interval in milliseconds" default:"10" toml:"loop.poll_interval_ms" env:"LOOP_POLL_INTERVAL_MS"`

	// Layout settings
	LayoutFile string `help:"Hot-reloaded LED layout file" default:"layout.toml" toml:"layout.file" env:"LAYOUT_FILE"`

	// Metrics settings
	MetricsTextfile string `help:"Write Prometheus metrics to this file (empty disables)" default:"" toml:"metrics.textfile" env:"METRICS_TEXTFILE"`
	MetricsInterval string `help:"Metrics textfile write interval" default:"15s" toml:"metrics.interval" env:"METRICS_INTERVAL"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingHw     string `help:"Pin backend logging level" default:"info" toml:"logging.hw" env:"LOGGING_HW"`
	LoggingEngine string `help:"Control loop logging level" default:"info" toml:"logging.engine" env:"LOGGING_ENGINE"`
	LoggingStatus string `help:"Layout manager logging level" default:"info" toml:"logging.status" env:"LOGGING_STATUS"`
}

func main() {
	var cli humacli.CLI

	// Create Huma CLI
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
				"hw":     opts.LoggingHw,
				"engine": opts.LoggingEngine,
				"status": opts.LoggingStatus,
			},
		})

		logger := logging.GetLogger("main")
		logger.Info("Starting blinkd", "version", version.String())

		pinIDs, err := config.ParseIntList(opts.HardwarePins)
		if err != nil || len(pinIDs) == 0 {
			logger.Error("Invalid hardware.pins, at least one pin is required", "pins", opts.HardwarePins, "error", err)
			os.Exit(1)
		}
		sysfsLEDs, err := config.ParsePinMap(opts.HardwareSysfsLeds)
		if err != nil {
			logger.Error("Invalid hardware.sysfs_leds", "error", err)
			os.Exit(1)
		}
		var pwmPins []int
		if opts.HardwarePwmPins != "" {
			if pwmPins, err = config.ParseIntList(opts.HardwarePwmPins); err != nil {
				logger.Error("Invalid hardware.pwm_pins", "error", err)
				os.Exit(1)
			}
		}

		clock := hw.NewSystemClock()
		driver, err := hw.New(opts.HardwareBackend, hw.Options{
			PWMPins:      pwmPins,
			PWMFrequency: physic.Frequency(opts.HardwarePwmFrequency) * physic.Hertz,
			SysfsLEDs:    sysfsLEDs,
			Clock:        clock,
			OnError:      metrics.RecordPinError,
		}, logging.GetLogger("hw"))
		if err != nil {
			logger.Error("Failed to open pin backend", "backend", opts.HardwareBackend, "error", err)
			os.Exit(1)
		}

		group := led.NewGroup(clock, metrics.InstrumentPins(driver), pinIDs...)

		// Create event bus for in-process event handling
		eventBus := events.New()

		eng, err := engine.New(group, clock, eventBus, engine.Options{
			PollInterval: time.Duration(opts.LoopPollIntervalMs) * time.Millisecond,
			Names:        config.ParseNameList(opts.HardwareNames),
		}, logging.GetLogger("engine"))
		if err != nil {
			logger.Error("Failed to create control loop", "error", err)
			os.Exit(1)
		}

		statusManager := status.NewManager(eng, eng, eventBus, logging.GetLogger("status"))

		layoutWatcher := config.NewConfigWatcher(opts.LayoutFile, config.LoadLayout, logger,
			config.WithErrorHandler[config.Layout](func(err error) {
				logger.Warn("Layout rejected, keeping current LED state", "path", opts.LayoutFile, "error", err)
			}),
		)
		layoutWatcher.OnReload(func(layout config.Layout) {
			eventBus.Publish(events.LayoutReloadedEvent{
				Path:      opts.LayoutFile,
				Layout:    layout,
				Timestamp: time.Now().Format(time.RFC3339),
			})
		})

		notifier := systemd.NewNotifier(logging.GetLogger("systemd"))
		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			statusManager.Start()

			if watchErr := layoutWatcher.Start(); watchErr != nil {
				logger.Warn("Layout watcher not started", "path", opts.LayoutFile, "error", watchErr)
			}

			if opts.MetricsTextfile != "" {
				interval, parseErr := time.ParseDuration(opts.MetricsInterval)
				if parseErr != nil {
					interval = exporters.DefaultTextfileInterval
				}
				go exporters.NewTextfile(opts.MetricsTextfile, interval, logger).Run(ctx)
			}

			var lastTicks atomic.Uint64
			go notifier.RunWatchdog(ctx, func() bool {
				ticks := eng.Ticks()
				return lastTicks.Swap(ticks) != ticks
			})

			// Apply the initial layout once the loop accepts commands.
			go func() {
				if _, statErr := os.Stat(opts.LayoutFile); statErr == nil {
					layoutWatcher.Reload()
				}
				notifier.Ready()
				notifier.Status("driving %d LEDs on %s backend", group.Len(), opts.HardwareBackend)
			}()

			if runErr := eng.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
				logger.Error("Control loop failed", "error", runErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			notifier.Stopping()

			if stopErr := layoutWatcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping layout watcher", "error", stopErr)
			}
			statusManager.Stop()

			cancel()
			select {
			case <-eng.Done():
			case <-time.After(2 * time.Second):
				logger.Warn("Control loop did not stop in time")
			}
		})
	})

	cli.Root().Use = "blinkd"
	cli.Root().Short = "Cooperative LED pattern daemon"
	cli.Root().Version = version.String()

	if f := cli.Root().PersistentFlags().Lookup("hardware-backend"); f != nil {
		f.Usage = cmd.BackendUsage()
	} else if f := cli.Root().Flags().Lookup("hardware-backend"); f != nil {
		f.Usage = cmd.BackendUsage()
	}

	cli.Root().AddCommand(cmd.CreateSimulateCmd())
	cli.Root().AddCommand(cmd.CreatePinsCmd())
	cli.Root().AddCommand(cmd.CreatePatternsCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	// Run the CLI
	cli.Run()
}
