package watcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dwg-systems/pos-updater/internal/config"
	"github.com/dwg-systems/pos-updater/internal/logger"
	"github.com/dwg-systems/pos-updater/internal/manifest"
	"github.com/dwg-systems/pos-updater/internal/service/notify"
	"github.com/dwg-systems/pos-updater/internal/service/updater"
)

// Options controls the watch loop behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// CheckInterval overrides the configured interval between release checks.
	CheckInterval time.Duration
}

// Run polls the share for a newer release and triggers the update sequence
// when one is due. Alongside the poll ticker it watches the share's manifest
// for changes, so a fresh publish is picked up without waiting a full cycle.
// The loop exits on context cancellation.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "pos-watcher")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	interval := cfg.CheckInterval
	if opts.CheckInterval > 0 {
		interval = opts.CheckInterval
	}

	notifier := notify.New(cfg.WebhookURL, cfg.Timeout)
	manifestEvents := watchManifest(ctx, cfg.SourcePath)

	logger.InfoKV(ctx, "Watching for releases",
		"share", cfg.SourcePath, "interval", interval.String())

	// Catch up immediately: the terminal may have been off when a release landed.
	checkOnce(ctx, cfg, opts.ConfigPath, notifier)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case <-ticker.C:
			checkOnce(ctx, cfg, opts.ConfigPath, notifier)
		case <-manifestEvents:
			logger.Info(ctx, "Release manifest changed on the share")
			checkOnce(ctx, cfg, opts.ConfigPath, notifier)
		}
	}
}

// watchManifest returns a channel that fires when the share's manifest is
// written. Watch setup failures (the share may not support inotify) degrade
// to poll-only operation.
func watchManifest(ctx context.Context, sharePath string) <-chan struct{} {
	events := make(chan struct{}, 1)

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.WarnKV(ctx, "File watching unavailable, relying on polling", "error", err)
		return events
	}

	if err = fsWatcher.Add(sharePath); err != nil {
		logger.WarnKV(ctx, "Cannot watch the share, relying on polling",
			"share", sharePath, "error", err)

		_ = fsWatcher.Close()

		return events
	}

	go func() {
		defer func() {
			_ = fsWatcher.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsWatcher.Events:
				if !ok {
					return
				}

				if filepath.Base(event.Name) != manifest.Filename {
					continue
				}

				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}

				select {
				case events <- struct{}{}:
				default:
				}
			case watchErr, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}

				logger.WarnKV(ctx, "Share watch error", "error", watchErr)
			}
		}
	}()

	return events
}

// checkOnce decides whether an update is due and runs the sequence when it is.
// Failures are logged and the loop keeps going: the next cycle retries.
func checkOnce(ctx context.Context, cfg *config.Config, configPath string, notifier *notify.Notifier) {
	due, remote, err := updateDue(cfg)
	if err != nil {
		logger.WarnKV(ctx, "Release check failed", "error", err)
		return
	}

	if !due {
		logger.Debug(ctx, "Installed build is current")
		return
	}

	logger.InfoKV(ctx, "Update due", "remote_version", remote.Version)

	if err = updater.Run(ctx, &updater.Options{ConfigPath: configPath}); err != nil {
		logger.ErrorKV(ctx, "Update run failed", "error", err)
		return
	}

	if !notifier.Enabled() {
		return
	}

	if err = notifier.UpdateApplied(ctx, remote.Version); err != nil {
		logger.WarnKV(ctx, "Update notification failed", "error", err)
	}
}

// updateDue compares the installed manifest against the share's:
// a missing installed manifest or a version mismatch makes an update due;
// equal versions fall back to verifying installed file checksums.
func updateDue(cfg *config.Config) (bool, *manifest.Description, error) {
	remote, err := manifest.Load(filepath.Join(cfg.SourcePath, manifest.Filename))
	if err != nil {
		return false, nil, fmt.Errorf("load share manifest: %w", err)
	}

	local, err := manifest.Load(filepath.Join(cfg.DestinationPath, manifest.Filename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, remote, nil
		}

		return false, nil, fmt.Errorf("load installed manifest: %w", err)
	}

	if local.Version != remote.Version {
		return true, remote, nil
	}

	due, err := filesDiffer(cfg, remote)
	if err != nil {
		return false, nil, err
	}

	return due, remote, nil
}

// filesDiffer reports whether any installed file deviates from the release
// checksums. It returns on the first mismatch to avoid unnecessary I/O.
func filesDiffer(cfg *config.Config, remote *manifest.Description) (bool, error) {
	for name := range remote.Files {
		want, ok, err := remote.Checksum(name)
		if err != nil {
			return false, err
		}

		if !ok {
			continue
		}

		installed := filepath.Join(cfg.DestinationPath, filepath.FromSlash(name))

		if _, err = os.Stat(installed); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return true, nil
			}

			return false, err
		}

		got, err := manifest.FileChecksum(installed)
		if err != nil {
			return false, err
		}

		if !bytes.Equal(want, got) {
			return true, nil
		}
	}

	return false, nil
}
