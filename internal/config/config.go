package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the paths and timings shared by the pos-updater binaries.
type Config struct {
	// SourcePath is the mounted network share directory holding the distributable build.
	SourcePath string `yaml:"source_path"`
	// DestinationPath is the local install directory. Empty means <home>/POS.
	DestinationPath string `yaml:"destination_path"`
	// ProcessName is the image name of the running POS process to terminate.
	ProcessName string `yaml:"process_name"`
	// ExecutableName is the file name of the POS executable inside the install directory.
	ExecutableName string `yaml:"executable_name"`
	// NotifyDelay is the pause between the completion message and the relaunch.
	NotifyDelay time.Duration `yaml:"notify_delay"`
	// CheckInterval is how often watch mode polls the share for a new release.
	CheckInterval time.Duration `yaml:"check_interval"`
	// WebhookURL receives a completion notification after an update. Empty disables it.
	WebhookURL string `yaml:"webhook_url"`
	// Timeout is the duration for outbound network operations.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for updater settings.
	DefaultConfigFilename = "pos-updater-settings.yaml"

	// DefaultSourcePath is the network share directory holding the distributable build.
	DefaultSourcePath = "//fileserver/pos/dist/POS"

	// DefaultDestinationDirName is the install directory created under the user's home.
	DefaultDestinationDirName = "POS"

	// DefaultNotifyDelay is the fixed pause before relaunching the application.
	DefaultNotifyDelay = 5 * time.Second

	// DefaultCheckInterval matches the original deployment's five-minute cycle.
	DefaultCheckInterval = 5 * time.Minute

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 10 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// basePOSName is the POS image name without the platform extension.
	basePOSName = "POS"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errDestinationNotAbsolute is returned when the destination path is relative.
	errDestinationNotAbsolute = errors.New("destination path must be absolute")
)

// POSExecutable returns the platform-specific POS image name.
func POSExecutable() string {
	return basePOSName + ExecutableExtension()
}

// ExecutableExtension returns ".exe" on Windows and "" elsewhere.
func ExecutableExtension() string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return ".exe"
	}

	return ""
}

// Default returns a configuration filled entirely from built-in constants.
// The destination incorporates the invoking user's home directory at run time.
func Default() (*Config, error) {
	cfg := new(Config)
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads configuration from the provided path and validates essential fields.
// A missing file is not an error: the binaries run on built-in defaults alone.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default()
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults for unset fields and checks the rest for sanity.
//
//nolint:cyclop // Sequential default-and-check flow reads better unsplit.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.SourcePath == "" {
		cfg.SourcePath = DefaultSourcePath
	}

	if cfg.DestinationPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}

		cfg.DestinationPath = filepath.Join(home, DefaultDestinationDirName)
	}

	if !filepath.IsAbs(cfg.DestinationPath) {
		return fmt.Errorf("%s: %w", cfg.DestinationPath, errDestinationNotAbsolute)
	}

	if cfg.ProcessName == "" {
		cfg.ProcessName = POSExecutable()
	}

	if cfg.ExecutableName == "" {
		cfg.ExecutableName = POSExecutable()
	}

	if cfg.NotifyDelay <= 0 {
		cfg.NotifyDelay = DefaultNotifyDelay
	}

	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.WebhookURL == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(cfg.WebhookURL); err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}

	return nil
}

// Executable returns the absolute path of the POS executable inside the install directory.
func (c *Config) Executable() string {
	return filepath.Join(c.DestinationPath, c.ExecutableName)
}
