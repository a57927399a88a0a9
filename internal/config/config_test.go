package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks default filling and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Empty config is filled entirely from defaults.
	cfg := new(Config)
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultSourcePath, cfg.SourcePath)
	require.True(t, filepath.IsAbs(cfg.DestinationPath))
	require.Equal(t, POSExecutable(), cfg.ProcessName)
	require.Equal(t, POSExecutable(), cfg.ExecutableName)
	require.Equal(t, DefaultNotifyDelay, cfg.NotifyDelay)
	require.Equal(t, DefaultCheckInterval, cfg.CheckInterval)

	// Relative destination.
	cfg = &Config{DestinationPath: "relative/pos"}
	require.Error(t, Validate(cfg))

	// Malformed webhook URL.
	cfg = &Config{WebhookURL: "not a url"}
	require.Error(t, Validate(cfg))

	// Okay with webhook.
	cfg = &Config{WebhookURL: "https://hooks.example.com/x"}
	require.NoError(t, Validate(cfg))
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		SourcePath:      filepath.Join(dir, "share"),
		DestinationPath: filepath.Join(dir, "install"),
		NotifyDelay:     time.Second,
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.SourcePath, loaded.SourcePath)
	require.Equal(t, cfg.DestinationPath, loaded.DestinationPath)
	require.Equal(t, time.Second, loaded.NotifyDelay)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoadMissingFileUsesDefaults verifies that a missing settings file is not an error.
func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultSourcePath, cfg.SourcePath)
}

// TestExecutable checks the install-directory executable path composition.
func TestExecutable(t *testing.T) {
	t.Parallel()

	cfg, err := Default()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(cfg.DestinationPath, cfg.ExecutableName), cfg.Executable())
}
