package status

import (
	"os"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

// TestFindProcesses_FindsSelf looks up the test binary by its own image name.
func TestFindProcesses_FindsSelf(t *testing.T) {
	t.Parallel()

	self, err := ps.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NotNil(t, self)

	pids, err := findProcesses(self.Executable())
	require.NoError(t, err)
	require.Contains(t, pids, int32(os.Getpid()))
}

// TestFindProcesses_NoMatch returns an empty result for an absent image name.
func TestFindProcesses_NoMatch(t *testing.T) {
	t.Parallel()

	pids, err := findProcesses("definitely-not-running-anywhere")
	require.NoError(t, err)
	require.Empty(t, pids)
}
