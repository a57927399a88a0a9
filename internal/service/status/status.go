// Package status reports whether the POS application is currently running.
package status

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchellh/go-ps"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/dwg-systems/pos-updater/internal/config"
	"github.com/dwg-systems/pos-updater/internal/logger"
)

// Options are inputs accepted by the status entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
}

// Run reports the running state of the configured POS image name.
// It exits normally whether or not the process is found.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "pos-status")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	pids, err := findProcesses(cfg.ProcessName)
	if err != nil {
		return fmt.Errorf("enumerate processes: %w", err)
	}

	if len(pids) == 0 {
		logger.InfoKV(ctx, "POS is not running", "image_name", cfg.ProcessName)
		return nil
	}

	for _, pid := range pids {
		reportProcess(ctx, cfg.ProcessName, pid)
	}

	return nil
}

// findProcesses returns the PIDs of every process matching the image name.
func findProcesses(imageName string) ([]int32, error) {
	processList, err := ps.Processes()
	if err != nil {
		return nil, err
	}

	var pids []int32

	for _, candidate := range processList {
		if candidate.Executable() != imageName {
			continue
		}

		pids = append(pids, int32(candidate.Pid()))
	}

	return pids, nil
}

// reportProcess logs per-process details, degrading to the bare PID when the
// richer inspection is unavailable.
func reportProcess(ctx context.Context, imageName string, pid int32) {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		logger.InfoKV(ctx, "POS is running", "image_name", imageName, "pid", pid)
		return
	}

	createTime, err := proc.CreateTimeWithContext(ctx)
	if err != nil {
		logger.InfoKV(ctx, "POS is running", "image_name", imageName, "pid", pid)
		return
	}

	started := time.UnixMilli(createTime)

	logger.InfoKV(ctx, "POS is running",
		"image_name", imageName,
		"pid", pid,
		"started", started.Format(time.RFC3339),
		"uptime", time.Since(started).Round(time.Second).String())
}
