package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"clipstudio/internal/domain"
)

// Options configures the webhook client.
type Options struct {
	WebhookURL string
	HTTPClient *http.Client
}

// Client submits generation requests to the external pipeline's webhook. No
// response body is relied upon beyond a success status; progress is observed
// through the durable store, never through this endpoint.
type Client struct {
	webhookURL string
	client     *http.Client
}

const defaultTimeout = 30 * time.Second

type submitRequest struct {
	Script    string `json:"script"`
	RequestID string `json:"requestId"`
	UserID    string `json:"userId"`
}

// NewClient validates the options and builds a Client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.WebhookURL) == "" {
		return nil, errors.New("generation webhook url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{webhookURL: opts.WebhookURL, client: client}, nil
}

// Submit sends one generation request. Timeouts are wrapped as
// domain.ErrTimeout, every other failure as domain.ErrTransport; retries
// belong to the webhook side, not here.
func (c *Client) Submit(ctx context.Context, userID, requestID, script string) error {
	payload, err := json.Marshal(submitRequest{Script: script, RequestID: requestID, UserID: userID})
	if err != nil {
		return fmt.Errorf("generation: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("generation: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("generation: %w: %v", domain.ErrTimeout, err)
		}
		return fmt.Errorf("generation: %w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("generation: %w: webhook returned %d", domain.ErrTransport, resp.StatusCode)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
