package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dwg-systems/pos-updater/internal/config"
	"github.com/dwg-systems/pos-updater/internal/manifest"
)

// newTestTrees prepares a share with a published release and an empty install
// directory, returning the config pointing at them.
func newTestTrees(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		SourcePath:      filepath.Join(dir, "share"),
		DestinationPath: filepath.Join(dir, "install"),
		ExecutableName:  "POS",
	}

	require.NoError(t, config.Validate(cfg))
	require.NoError(t, os.MkdirAll(cfg.SourcePath, 0o755))
	require.NoError(t, os.MkdirAll(cfg.DestinationPath, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(cfg.SourcePath, "POS"), []byte("v2"), 0o755))

	desc := manifest.NewDescription("2.0.0", "POS")
	require.NoError(t, desc.AddFile("POS", filepath.Join(cfg.SourcePath, "POS")))
	require.NoError(t, desc.Save(filepath.Join(cfg.SourcePath, manifest.Filename)))

	return cfg
}

// TestUpdateDue_NoInstalledManifest treats a fresh terminal as due.
func TestUpdateDue_NoInstalledManifest(t *testing.T) {
	t.Parallel()

	cfg := newTestTrees(t)

	due, remote, err := updateDue(cfg)
	require.NoError(t, err)
	require.True(t, due)
	require.Equal(t, "2.0.0", remote.Version)
}

// TestUpdateDue_VersionMismatch treats an older installed release as due.
func TestUpdateDue_VersionMismatch(t *testing.T) {
	t.Parallel()

	cfg := newTestTrees(t)

	installed := manifest.NewDescription("1.0.0", "POS")
	require.NoError(t, installed.Save(filepath.Join(cfg.DestinationPath, manifest.Filename)))

	due, _, err := updateDue(cfg)
	require.NoError(t, err)
	require.True(t, due)
}

// TestUpdateDue_ChecksumMismatch catches a drifted file behind equal versions.
func TestUpdateDue_ChecksumMismatch(t *testing.T) {
	t.Parallel()

	cfg := newTestTrees(t)

	// Same version, but the installed binary differs from the release.
	shareManifest, err := manifest.Load(filepath.Join(cfg.SourcePath, manifest.Filename))
	require.NoError(t, err)
	require.NoError(t, shareManifest.Save(filepath.Join(cfg.DestinationPath, manifest.Filename)))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DestinationPath, "POS"), []byte("v1"), 0o755))

	due, _, err := updateDue(cfg)
	require.NoError(t, err)
	require.True(t, due)
}

// TestUpdateDue_Current reports nothing to do when version and files match.
func TestUpdateDue_Current(t *testing.T) {
	t.Parallel()

	cfg := newTestTrees(t)

	shareManifest, err := manifest.Load(filepath.Join(cfg.SourcePath, manifest.Filename))
	require.NoError(t, err)
	require.NoError(t, shareManifest.Save(filepath.Join(cfg.DestinationPath, manifest.Filename)))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DestinationPath, "POS"), []byte("v2"), 0o755))

	due, _, err := updateDue(cfg)
	require.NoError(t, err)
	require.False(t, due)
}

// TestUpdateDue_ShareUnreachable surfaces an error so the loop retries later.
func TestUpdateDue_ShareUnreachable(t *testing.T) {
	t.Parallel()

	cfg := newTestTrees(t)
	require.NoError(t, os.RemoveAll(cfg.SourcePath))

	_, _, err := updateDue(cfg)
	require.Error(t, err)
}

// TestRun_ExitsOnCancel ensures the watch loop honors context cancellation.
func TestRun_ExitsOnCancel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.DefaultConfigFilename)
	cfg := &config.Config{
		SourcePath:      filepath.Join(dir, "missing-share"),
		DestinationPath: filepath.Join(dir, "install"),
	}

	require.NoError(t, config.Save(cfgPath, cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	opts := &Options{
		ConfigPath:    cfgPath,
		CheckInterval: 10 * time.Millisecond,
	}

	require.NoError(t, Run(ctx, opts))
}
