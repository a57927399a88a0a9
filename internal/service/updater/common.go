package updater

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/dwg-systems/pos-updater/internal/config"
	"github.com/dwg-systems/pos-updater/internal/logger"
)

const (
	// MarkerFilename marks that the updater is running right now to avoid parallel execution.
	MarkerFilename = "pos-update-marker.bin"

	// markerLifetime is the period after which a stale update marker is ignored.
	markerLifetime = 30 * time.Second

	// baseUpdaterName is the updater's own image name without the platform extension.
	baseUpdaterName = "pos-updater"
)

// MarkerPath returns the marker location. The marker lives in the working
// directory, next to the settings file, so every invocation launched from the
// install directory shares the guard.
func MarkerPath() string {
	return filepath.Clean(MarkerFilename)
}

// updaterExecutable returns the updater's platform-specific image name.
func updaterExecutable() string {
	return baseUpdaterName + config.ExecutableExtension()
}

// IsRunningNow checks presence of the marker file and attempts recovery if it looks stale.
func IsRunningNow(ctx context.Context) bool {
	logger.Info(ctx, "Checking for the presence of an update marker")

	fileInfo, err := os.Stat(MarkerPath())
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The update marker is too old, attempting cleanup")

		if err = TerminateProcessesByName(updaterExecutable()); err != nil {
			return true
		}

		if err = os.Remove(MarkerPath()); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "Update marker not found, continuing")
		return false
	}

	logger.Infof(ctx, "Unable to read update marker: %v", err)

	return false
}

// TerminateProcessesByName kills every process whose image name matches,
// skipping the current process.
func TerminateProcessesByName(processName string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != processName {
			continue
		}

		var runningProcess *os.Process

		runningProcess, err = os.FindProcess(process.Pid())
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}
