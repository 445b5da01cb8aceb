package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds every outbound call to a tracker API.
const DefaultTimeout = 10 * time.Second

// restClient is the shared HTTP plumbing for the REST/GraphQL adapters.
// Timeouts and non-2xx responses are logged with method and URL context and
// returned as typed errors; nothing is retried at this layer.
type restClient struct {
	http   *http.Client
	logger *zap.Logger
}

func newRESTClient(timeout time.Duration, logger *zap.Logger) *restClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &restClient{
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (c *restClient) doJSON(ctx context.Context, method, rawURL string, headers map[string]string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			timeoutErr := &RemoteTimeoutError{Method: method, URL: rawURL, Err: err}
			c.logger.Error("tracker request timed out",
				zap.String("method", method),
				zap.String("url", rawURL),
				zap.Error(err))
			return timeoutErr
		}
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &RemoteHTTPError{
			Method:     method,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
		c.logger.Error("tracker request failed",
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(raw)))
		return httpErr
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return err
		}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue) && ue.Timeout()
}
