package updater

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

// chdir switches the working directory for the test and restores it on
// cleanup (testing.T.Chdir requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(prev))
	})
}

// newTestConfig persists settings pointing at temporary source and
// destination trees and returns the config path alongside them.
func newTestConfig(t *testing.T) (cfgPath, src, dst string) {
	t.Helper()

	dir := t.TempDir()

	// The run marker is working-directory relative; isolate it per test.
	chdir(t, dir)
	src = filepath.Join(dir, "share")
	dst = filepath.Join(dir, "install")

	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.MkdirAll(dst, 0o755))

	cfgPath = filepath.Join(dir, config.DefaultConfigFilename)
	cfg := &config.Config{
		SourcePath:      src,
		DestinationPath: dst,
		ProcessName:     "pos-test-nonexistent-process",
		ExecutableName:  "POS",
		NotifyDelay:     time.Millisecond,
	}

	require.NoError(t, config.Save(cfgPath, cfg))

	return cfgPath, src, dst
}

// TestRun_CopiesOverwritesAndKeepsExtras runs the full sequence against
// temporary trees: the build is mirrored, pre-existing destination files
// survive, the executable is applied with its release checksum, and the
// failing relaunch of a dummy binary does not fail the run.
func TestRun_CopiesOverwritesAndKeepsExtras(t *testing.T) {
	cfgPath, src, dst := newTestConfig(t)

	require.NoError(t, os.WriteFile(filepath.Join(src, "A.txt"), []byte("v2"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "POS"), []byte("pos-binary"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "A.txt"), []byte("v1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "B.txt"), []byte("keep"), 0o644))

	desc := manifest.NewDescription("2.0.0", "POS")
	require.NoError(t, desc.AddFile("POS", filepath.Join(src, "POS")))
	require.NoError(t, desc.Save(filepath.Join(src, manifest.Filename)))

	require.NoError(t, Run(context.Background(), &Options{ConfigPath: cfgPath}))

	contents, err := os.ReadFile(filepath.Join(dst, "A.txt"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), contents)

	contents, err = os.ReadFile(filepath.Join(dst, "B.txt"))
	require.NoError(t, err)
	require.Equal(t, []byte("keep"), contents)

	contents, err = os.ReadFile(filepath.Join(dst, "POS"))
	require.NoError(t, err)
	require.Equal(t, []byte("pos-binary"), contents)

	// The atomic apply leaves no backup behind.
	_, err = os.Stat(filepath.Join(dst, "POS.old"))
	require.ErrorIs(t, err, os.ErrNotExist)

	// The marker is removed on completion.
	_, err = os.Stat(MarkerPath())
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_UnreachableSourceStillCompletes verifies the sequence tolerates a
// missing share: the copy fails, yet the run reports success.
func TestRun_UnreachableSourceStillCompletes(t *testing.T) {
	cfgPath, src, _ := newTestConfig(t)

	require.NoError(t, os.RemoveAll(src))

	require.NoError(t, Run(context.Background(), &Options{ConfigPath: cfgPath}))
}

// TestRun_RefusesConcurrentExecution checks the marker-based exclusion.
func TestRun_RefusesConcurrentExecution(t *testing.T) {
	cfgPath, _, _ := newTestConfig(t)

	require.NoError(t, os.WriteFile(MarkerPath(), nil, 0o600))

	t.Cleanup(func() {
		_ = os.Remove(MarkerPath())
	})

	err := Run(context.Background(), &Options{ConfigPath: cfgPath})
	require.ErrorIs(t, err, errUpdaterAlreadyRunning)
}

// TestTerminateProcessesByName_NoMatch ensures an absent image name is a no-op.
func TestTerminateProcessesByName_NoMatch(t *testing.T) {
	t.Parallel()

	require.NoError(t, TerminateProcessesByName("definitely-not-running-anywhere"))
}
