package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"parcel-tracker/internal/core/httpclient"
)

// Webhook posts notifications as JSON to a fixed URL.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a Webhook using the logging HTTP client. A non-empty
// secret is sent in the X-Webhook-Secret header.
func NewWebhook(url, secret string, timeout time.Duration) *Webhook {
	var opts []httpclient.Option
	if secret != "" {
		opts = append(opts, httpclient.WithHeader("X-Webhook-Secret", secret))
	}
	return &Webhook{url: url, client: httpclient.New(timeout, opts...)}
}

func (w *Webhook) Post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
