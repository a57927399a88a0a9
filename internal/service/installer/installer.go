// Package installer puts the updater itself onto a terminal: it copies the
// running executable into the install directory and registers it to start at
// login in watch mode, so the terminal keeps itself current afterwards.
package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dwg-systems/pos-updater/internal/config"
	"github.com/dwg-systems/pos-updater/internal/fsutil"
	"github.com/dwg-systems/pos-updater/internal/logger"
)

const (
	// autostartName is the registry value / unit name used for autostart registration.
	autostartName = "pos-updater"

	// runKey is the per-user registry key Windows consults at login.
	runKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

	// unitFileMode is the permission for the generated systemd unit.
	unitFileMode os.FileMode = 0o644
)

// errUnsupportedOS indicates autostart registration is not implemented for this platform.
var errUnsupportedOS = errors.New("os not supported")

// Options are inputs accepted by the installer entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
}

// Run copies the running executable into the install directory and registers
// it for autostart. A failed autostart registration is logged but does not
// undo the install: the copy alone already allows manual updates.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "pos-installer")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	target, err := installSelf(ctx, cfg)
	if err != nil {
		return fmt.Errorf("install executable: %w", err)
	}

	if err = registerAutostart(ctx, target); err != nil {
		logger.WarnKV(ctx, "Autostart registration failed", "error", err)
	}

	logger.InfoKV(ctx, "Installer completed", "target", target)

	return nil
}

// installSelf copies the running executable into the install directory
// and returns the installed path.
func installSelf(ctx context.Context, cfg *config.Config) (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate own executable: %w", err)
	}

	if err = os.MkdirAll(cfg.DestinationPath, 0o755); err != nil {
		return "", fmt.Errorf("create install directory: %w", err)
	}

	target := filepath.Join(cfg.DestinationPath, filepath.Base(self))
	if target == self {
		logger.Info(ctx, "Already running from the install directory")
		return target, nil
	}

	if err = fsutil.CopyFile(self, target); err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Copied updater into the install directory", "target", target)

	return target, nil
}

// registerAutostart wires the installed executable to run in watch mode at login.
func registerAutostart(ctx context.Context, target string) error {
	osLC := strings.ToLower(runtime.GOOS)
	switch {
	case strings.Contains(osLC, "windows"):
		return registerRunKey(ctx, target)
	case strings.Contains(osLC, "linux"):
		return registerSystemdUnit(ctx, target)
	default:
		return fmt.Errorf("%s OS is not supported: %w", runtime.GOOS, errUnsupportedOS)
	}
}

// registerRunKey adds the per-user Run registry value on Windows.
func registerRunKey(ctx context.Context, target string) error {
	command := exec.CommandContext(ctx, "reg", "add", runKey,
		"/v", autostartName, "/t", "REG_SZ", "/d", target+" watch", "/f")

	if output, err := command.CombinedOutput(); err != nil {
		return fmt.Errorf("reg add: %s: %w", strings.TrimSpace(string(output)), err)
	}

	return nil
}

// registerSystemdUnit writes a systemd user unit and enables it.
func registerSystemdUnit(ctx context.Context, target string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}

	unitDirectory := filepath.Join(home, ".config", "systemd", "user")
	if err = os.MkdirAll(unitDirectory, 0o755); err != nil {
		return fmt.Errorf("create unit directory: %w", err)
	}

	unitPath := filepath.Join(unitDirectory, autostartName+".service")
	if err = os.WriteFile(unitPath, []byte(systemdUnit(target)), unitFileMode); err != nil {
		return fmt.Errorf("write unit file: %w", err)
	}

	command := exec.CommandContext(ctx, "systemctl", "--user", "enable", autostartName+".service")
	if output, err := command.CombinedOutput(); err != nil {
		return fmt.Errorf("systemctl enable: %s: %w", strings.TrimSpace(string(output)), err)
	}

	return nil
}

// systemdUnit renders the user unit keeping the terminal current in watch mode.
func systemdUnit(target string) string {
	var builder strings.Builder

	builder.WriteString("[Unit]\n")
	builder.WriteString("Description=POS updater watch service\n\n")
	builder.WriteString("[Service]\n")
	builder.WriteString("ExecStart=" + target + " watch\n")
	builder.WriteString("Restart=on-failure\n\n")
	builder.WriteString("[Install]\n")
	builder.WriteString("WantedBy=default.target\n")

	return builder.String()
}
