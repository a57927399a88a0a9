package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestUpdateApplied_PostsContent verifies the webhook receives a JSON body
// naming the release version and the current host.
func TestUpdateApplied_PostsContent(t *testing.T) {
	t.Parallel()

	var received payload

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))

		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	n := New(ts.URL, time.Second)
	require.True(t, n.Enabled())
	require.NoError(t, n.UpdateApplied(context.Background(), "2.0.0"))
	require.Contains(t, received.Content, "2.0.0")
}

// TestUpdateApplied_BadStatus reports an error on webhook rejection.
func TestUpdateApplied_BadStatus(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	n := New(ts.URL, time.Second)
	require.ErrorIs(t, n.UpdateApplied(context.Background(), "2.0.0"), errBadHTTPStatus)
}

// TestDisabledNotifier is a no-op without a webhook URL.
func TestDisabledNotifier(t *testing.T) {
	t.Parallel()

	n := New("", time.Second)
	require.False(t, n.Enabled())
	require.NoError(t, n.UpdateApplied(context.Background(), "2.0.0"))
}
