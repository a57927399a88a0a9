// Package notify reports applied updates to an operator webhook.
//
// The payload mirrors the chat-webhook convention used by the original
// deployment: a single "content" field naming the release and the terminal
// it landed on. An empty webhook URL disables the notifier entirely.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dwg-systems/pos-updater/internal/service/common"
)

// errBadHTTPStatus indicates the webhook rejected the notification.
var errBadHTTPStatus = errors.New("unexpected http status")

// payload is the JSON body posted to the webhook.
type payload struct {
	Content string `json:"content"`
}

// Notifier posts update notifications to a webhook URL.
type Notifier struct {
	url    string
	client *http.Client
}

// New creates a notifier for the given webhook URL.
// An empty URL produces a disabled notifier whose methods are no-ops.
func New(webhookURL string, timeout time.Duration) *Notifier {
	return &Notifier{
		url:    webhookURL,
		client: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n.url != ""
}

// UpdateApplied reports that the given release version was installed on this machine.
func (n *Notifier) UpdateApplied(ctx context.Context, releaseVersion string) error {
	if !n.Enabled() {
		return nil
	}

	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	message := fmt.Sprintf("POS has been updated to version %s on %s by %s",
		releaseVersion, actor.Hostname, actor.Username)

	body, err := json.Marshal(payload{Content: message})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	response, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s: %w", response.Status, errBadHTTPStatus)
	}

	return nil
}
