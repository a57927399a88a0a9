package updater

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/dwg-systems/pos-updater/internal/config"
	"github.com/dwg-systems/pos-updater/internal/fsutil"
	"github.com/dwg-systems/pos-updater/internal/logger"
	"github.com/dwg-systems/pos-updater/internal/manifest"
)

var (
	errUpdaterAlreadyRunning = errors.New("the updater is already running")
	errUnsupportedOS         = errors.New("os not supported")
)

// CompletionMessage is the fixed status line shown after the copy step.
const CompletionMessage = "POS has been updated."

// Options are inputs accepted by the updater entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
}

// runner holds the configuration for a single update execution.
// It is intentionally unexported—call Run(ctx, Options) from callers.
type runner struct {
	cfg *config.Config
}

// Run executes the update sequence and is the public entry point for the CLI.
// Setup failures (concurrent run, unreadable settings) are returned; the
// sequence itself always runs to completion and reports success, matching
// the deployment script this replaces.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "pos-updater")

	up, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer up.cleanup(ctx)

	up.Run(ctx)
	logger.Info(ctx, "Updater completed")

	return nil
}

// newRunner loads settings and writes a marker to avoid concurrent runs.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	if IsRunningNow(ctx) {
		return nil, errUpdaterAlreadyRunning
	}

	updateMarker, err := os.Create(MarkerPath())
	if err != nil {
		return nil, err
	}

	if err = updateMarker.Close(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	return &runner{cfg: cfg}, nil
}

// Run executes the strict sequence:
// 1) Terminate the POS process by image name.
// 2) Copy the build from the share into the install directory.
// 3) Print the completion message and pause.
// 4) Relaunch the executable detached.
// Every step tolerates failure: a failed step is logged and execution
// proceeds to the next step unconditionally.
func (u *runner) Run(ctx context.Context) {
	u.terminate(ctx)
	u.copyBuild(ctx)
	u.notifyAndPause(ctx)
	u.relaunch(ctx)
}

// terminate kills any running process matching the configured image name.
// The outcome is not branched on: an absent process is not an error worth stopping for.
func (u *runner) terminate(ctx context.Context) {
	logger.InfoKV(ctx, "Terminating POS process", "image_name", u.cfg.ProcessName)

	if err := TerminateProcessesByName(u.cfg.ProcessName); err != nil {
		logger.ErrorKV(ctx, "Terminate POS process failed", "error", err)
	}
}

// copyBuild mirrors the share tree into the install directory, overwriting
// without prompting and leaving destination extras untouched. The executable
// itself is applied atomically afterwards.
func (u *runner) copyBuild(ctx context.Context) {
	logger.InfoKV(ctx, "Copying build",
		"source", u.cfg.SourcePath, "destination", u.cfg.DestinationPath)

	if err := os.MkdirAll(u.cfg.DestinationPath, manifest.DefaultFileMode); err != nil {
		logger.ErrorKV(ctx, "Create install directory failed", "error", err)
		return
	}

	if err := fsutil.CopyTreeExcluding(u.cfg.SourcePath, u.cfg.DestinationPath, u.cfg.ExecutableName); err != nil {
		logger.ErrorKV(ctx, "Copy build failed", "error", err)
	}

	if err := u.applyExecutable(ctx); err != nil {
		logger.ErrorKV(ctx, "Apply executable failed", "error", err)
	}
}

// applyExecutable replaces the installed executable with the one from the
// share using an atomic rename, verifying the release checksum when the
// share carries a manifest covering it.
func (u *runner) applyExecutable(ctx context.Context) error {
	sourceExecutable := filepath.Join(u.cfg.SourcePath, u.cfg.ExecutableName)

	data, err := os.ReadFile(filepath.Clean(sourceExecutable))
	if err != nil {
		return err
	}

	options := goupdate.Options{
		TargetPath: u.cfg.Executable(),
		TargetMode: manifest.DefaultFileMode,
		Hash:       manifest.ChecksumFunction,
	}

	if desc, descErr := manifest.Load(filepath.Join(u.cfg.SourcePath, manifest.Filename)); descErr == nil {
		checksum, ok, checksumErr := desc.Checksum(u.cfg.ExecutableName)
		if checksumErr != nil {
			return checksumErr
		}

		if ok {
			logger.Debug(ctx, "Verifying executable against the release checksum")

			options.Checksum = checksum
		}
	}

	// Apply replaces an existing file, so seed an empty one on first install.
	if _, err = os.Stat(options.TargetPath); err != nil && os.IsNotExist(err) {
		if _, err = os.Create(options.TargetPath); err != nil {
			return err
		}
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return err
	}

	oldFileName := u.cfg.Executable() + ".old"
	if _, err = os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	return nil
}

// notifyAndPause prints the fixed completion message and waits before the relaunch.
func (u *runner) notifyAndPause(_ context.Context) {
	fmt.Println(CompletionMessage)

	// The pause is cosmetic and deliberately not cancellable.
	time.Sleep(u.cfg.NotifyDelay)
}

// relaunch starts the installed executable as a new, independent process,
// without waiting for it and without passing arguments.
func (u *runner) relaunch(ctx context.Context) {
	executable := u.cfg.Executable()

	logger.InfoKV(ctx, "Starting executable", "executable", executable)

	if err := startDetached(executable); err != nil {
		logger.ErrorKV(ctx, "Start executable failed", "error", err)
	}
}

// startDetached launches an executable without monitoring its lifetime.
func startDetached(executable string) error {
	osLC := strings.ToLower(runtime.GOOS)
	switch {
	case strings.Contains(osLC, "linux") || strings.Contains(osLC, "darwin"):
		command := exec.Command(executable)
		command.Dir = filepath.Dir(executable)

		return command.Start()
	case strings.Contains(osLC, "windows"):
		return exec.Command("cmd.exe", "/C", "start", executable).Start()
	default:
		return fmt.Errorf("%s OS is not supported: %w", runtime.GOOS, errUnsupportedOS)
	}
}

// cleanup removes the running marker.
func (u *runner) cleanup(ctx context.Context) {
	if _, err := os.Stat(MarkerPath()); err == nil {
		_ = os.Remove(MarkerPath())
	}

	logger.Info(ctx, "The updater has been stopped")
}
