package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dwg-systems/pos-updater/internal/service/installer"
)

// installCmd copies the updater onto the terminal and registers autostart.
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the updater into the POS directory and register it to start at login",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return installer.Run(ctx, &installer.Options{ConfigPath: configPath})
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(installCmd)
}
