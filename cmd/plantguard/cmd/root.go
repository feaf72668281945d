package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verdantlabs/plantguard/internal/config"
	"github.com/verdantlabs/plantguard/internal/service/controller"
	"github.com/verdantlabs/plantguard/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile path where the checkpointed record image is persisted.
	stateFile string
	// logLevel overrides the configured logging level.
	logLevel string

	// rootCmd represents the base command for running the controller.
	rootCmd = &cobra.Command{
		Use:   "plantguard",
		Short: "Run the irrigation and frost-protection controller.",
		Long: `Starts the unattended controller for one potted plant: it waters on a
moisture trigger, protects the soil from frost with an optional heater,
and checkpoints all core state so a power cycle loses at most one
control cycle.

Settings come from the configuration YAML file. The record image path
from the configuration can be overridden with --state-file. When an MQTT
broker is configured, the controller publishes transition events and
periodic status snapshots and accepts remote commands.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &controller.Options{
				ConfigPath: configPath,
				StateFile:  stateFile,
				LogLevel:   logLevel,
			}

			return controller.Run(ctx, options)
		},
	}
)

// Execute runs the plantguard CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&stateFile, "state-file", "s", "", "path to the record image, overriding configuration")
	rootCmd.Flags().
		StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error), overriding configuration")
}
