package social

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clipstudio/internal/domain"
)

// Publisher forwards a finished video to a social publishing service.
type Publisher interface {
	Publish(ctx context.Context, apiKey string, post Post) (string, error)
}

// Post is one publish request: a hosted video plus caption for a platform.
type Post struct {
	Platform string `json:"platform"`
	Caption  string `json:"caption"`
	VideoURL string `json:"videoUrl"`
}

// BlotatoOptions configures the Blotato client.
type BlotatoOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// BlotatoClient implements Publisher against the Blotato REST API. The user
// supplies their own API key per request; the service holds no credential of
// its own.
type BlotatoClient struct {
	baseURL string
	client  *http.Client
}

const blotatoDefaultTimeout = 20 * time.Second

// NewBlotatoClient builds a BlotatoClient.
func NewBlotatoClient(opts BlotatoOptions) *BlotatoClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://backend.blotato.com/v2"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: blotatoDefaultTimeout}
	}
	return &BlotatoClient{baseURL: baseURL, client: client}
}

type blotatoPublishResponse struct {
	PostID string `json:"postId"`
}

// Publish submits the post and returns the remote post id when the service
// provides one.
func (c *BlotatoClient) Publish(ctx context.Context, apiKey string, post Post) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", errors.New("social: blotato api key is required")
	}
	payload, err := json.Marshal(post)
	if err != nil {
		return "", fmt.Errorf("social: encode post: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/posts", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("social: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("blotato-api-key", apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("social: %w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("social: %w: blotato returned %d", domain.ErrTransport, resp.StatusCode)
	}
	var decoded blotatoPublishResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		// The post went through; a missing id is not worth failing over.
		return "", nil
	}
	return decoded.PostID, nil
}

var _ Publisher = (*BlotatoClient)(nil)
