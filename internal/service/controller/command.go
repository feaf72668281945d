package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/verdantlabs/plantguard/internal/clock"
	"github.com/verdantlabs/plantguard/internal/config"
	"github.com/verdantlabs/plantguard/internal/hardware/gpio"
	"github.com/verdantlabs/plantguard/internal/logger"
	"github.com/verdantlabs/plantguard/internal/repository/record"
	"github.com/verdantlabs/plantguard/internal/telemetry/mqtt"
	"github.com/verdantlabs/plantguard/internal/version"
)

// Options controls the plantguard daemon process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// StateFile provides an optional record-image path override.
	StateFile string
	// LogLevel provides an optional log-level override.
	LogLevel string
}

// Run starts the control loop and blocks until the context is canceled.
// It wires the real hardware and, when a broker is configured, telemetry.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "plantguard")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// Command line log level wins over the configured one.
	levelName := cfg.LogLevel
	if opts.LogLevel != "" {
		levelName = opts.LogLevel
	}

	if levelName != "" {
		if level, ok := logger.ParseLogLevel(levelName); ok {
			logger.SetLevel(level)
		} else {
			logger.Warnf(ctx, "Unknown log level %q, keeping %s", levelName, logger.Level())
		}
	}

	// Use StateFile from config unless overridden by command line option.
	if opts.StateFile != "" {
		cfg.StateFile = opts.StateFile
	}

	hardware, err := gpio.NewReal(&cfg.GPIO)
	if err != nil {
		return fmt.Errorf("open hardware: %w", err)
	}
	defer hardware.Close()

	var telemetry mqtt.Publisher

	if cfg.MQTT.Broker != "" {
		publisher, err := mqtt.NewRealPublisher(&cfg.MQTT)
		if err != nil {
			// Telemetry is an indicator surface, never a reason to halt.
			logger.Errorf(ctx, "Telemetry unavailable, continuing without: %v", err)
		} else {
			telemetry = publisher
			defer publisher.Close()
		}
	}

	clk := clock.New(clock.Monotonic(), clock.SystemAbsolute(), cfg.ResyncInterval)
	store := record.NewStore(record.NewFileStorage(cfg.StateFile))

	now := clk.Now()

	rec, err := store.Load(ctx, now, clock.Day(now))
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}

	ctrl := New(cfg, clk, store, rec, hardware, hardware, hardware, telemetry)

	logger.InfoKV(ctx, "Controller running",
		"version", version.Short(),
		"state_file", cfg.StateFile,
		"cycle_interval", cfg.CycleInterval,
		"heater", cfg.Heater.Enabled)

	ticker := time.NewTicker(cfg.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Controller stopped")

			return nil
		case <-ticker.C:
			ctrl.Cycle(ctx)
		}
	}
}
