package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dwg-systems/pos-updater/internal/config"
	"github.com/dwg-systems/pos-updater/internal/logger"
	"github.com/dwg-systems/pos-updater/internal/service/publisher"
	"github.com/dwg-systems/pos-updater/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// logLevel selects the minimum logging level.
	logLevel string

	// buildPath is the directory holding the freshly built distribution.
	buildPath string

	// releaseVersion is recorded in the manifest for this release.
	releaseVersion string

	// rootCmd represents the base command for staging a release onto the share.
	rootCmd = &cobra.Command{
		Use:   "pos-publisher",
		Short: "Stage a POS build onto the network share and write the release manifest",
		Args:  cobra.NoArgs,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if lvl, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(lvl)
			}
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &publisher.Options{
				ConfigPath: configPath,
				BuildPath:  buildPath,
				Version:    releaseVersion,
			}

			return publisher.Run(ctx, options)
		},
	}
)

// Execute runs the pos-publisher CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c",
		config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "minimum logging level")
	rootCmd.Flags().StringVarP(&buildPath, "build", "b", "", "directory holding the built distribution")
	rootCmd.Flags().StringVar(&releaseVersion, "release-version", "", "version recorded in the manifest")

	_ = rootCmd.MarkFlagRequired("build")
}
