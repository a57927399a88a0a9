package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwg-systems/pos-updater/internal/service/watcher"
)

// checkInterval overrides the configured interval between release checks.
var checkInterval time.Duration

// watchCmd keeps the terminal current by checking the share periodically.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run continuously, updating whenever a new release appears on the share",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		options := &watcher.Options{
			ConfigPath:    configPath,
			CheckInterval: checkInterval,
		}

		return watcher.Run(ctx, options)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	watchCmd.Flags().DurationVar(&checkInterval, "interval", 0,
		"interval between release checks (default from configuration)")
	rootCmd.AddCommand(watchCmd)
}
