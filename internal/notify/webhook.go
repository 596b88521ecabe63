package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Webhook POSTs reports as JSON to an arbitrary endpoint.
type Webhook struct {
	url    string
	client *http.Client
}

var _ Channel = (*Webhook)(nil)

// NewWebhook creates a webhook channel for url.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) Name() string { return "webhook" }

// Send posts {"text": report} to the endpoint.
func (w *Webhook) Send(ctx context.Context, report string) error {
	if w.url == "" {
		return fmt.Errorf("webhook channel misconfigured")
	}

	body, err := json.Marshal(map[string]string{"text": report})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook error: %s", resp.Status)
	}
	return nil
}
