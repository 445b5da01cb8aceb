package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookMessage is a rendered webhook payload awaiting delivery.
type WebhookMessage struct {
	URL     string          `json:"url"`
	Payload json.RawMessage `json:"payload"`
}

// WebhookSender delivers rendered webhook payloads.
type WebhookSender interface {
	Send(ctx context.Context, msg WebhookMessage) error
}

// HTTPWebhookSender posts payloads as JSON.
type HTTPWebhookSender struct {
	client *http.Client
}

// NewHTTPWebhookSender builds a sender with the given delivery timeout.
func NewHTTPWebhookSender(timeout time.Duration) *HTTPWebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPWebhookSender{client: &http.Client{Timeout: timeout}}
}

func (s *HTTPWebhookSender) Send(ctx context.Context, msg WebhookMessage) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, msg.URL, bytes.NewReader(msg.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook delivery to %s returned %d: %s", msg.URL, resp.StatusCode, body)
	}
	return nil
}
