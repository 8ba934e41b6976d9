// Package remote provides a small HTTP client for the management API of a
// running pulse server, used by CLI commands that inspect live state.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/internal/server/cache"
)

// DefaultServerURL is where commands look for a server when no --server
// flag or PULSE_SERVER environment variable is set.
const DefaultServerURL = "http://localhost:8080"

// apiPrefix matches the server's default path prefix.
const apiPrefix = "/api/v1"

// authHeader matches the server's default authentication header.
const authHeader = "X-API-Key"

// Client queries a pulse server's management endpoints.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// New creates a management API client for the server at baseURL. The API
// key is sent in the X-API-Key header when non-empty.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// StatsSnapshot mirrors the GET /stats response payload.
type StatsSnapshot struct {
	Hub     hub.Stats   `json:"hub"`
	Stale   bool        `json:"stale"`
	Runtime RuntimeInfo `json:"runtime"`
	Cache   cache.Stats `json:"cache"`
}

// RuntimeInfo carries the server process figures reported with stats.
type RuntimeInfo struct {
	Goroutines  int    `json:"goroutines"`
	MemoryMB    uint64 `json:"memory_mb"`
	MemorySysMB uint64 `json:"memory_sys_mb"`
}

// Stats fetches the server's statistics snapshot.
func (c *Client) Stats(ctx context.Context) (StatsSnapshot, error) {
	var snap StatsSnapshot
	err := c.get(ctx, "/stats", &snap)
	return snap, err
}

// connectionsPayload mirrors the GET /connections response payload.
type connectionsPayload struct {
	Connections []hub.ConnInfo `json:"connections"`
	Total       int            `json:"total"`
}

// Connections fetches the server's active connection list.
func (c *Client) Connections(ctx context.Context) ([]hub.ConnInfo, error) {
	var payload connectionsPayload
	if err := c.get(ctx, "/connections", &payload); err != nil {
		return nil, err
	}
	return payload.Connections, nil
}

// envelope is the server's standard response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *APIError       `json:"error"`
}

// APIError is an error reported by the server inside a response envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// get performs a GET against a management endpoint and unwraps the
// response envelope into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	url := c.baseURL + apiPrefix + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(authHeader, c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding %s response (status %d): %w", path, resp.StatusCode, err)
	}

	// The server reports failures inside the envelope with a matching
	// status code; prefer its message over a bare status.
	if env.Error != nil {
		return env.Error
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned unexpected status %d", path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding %s payload: %w", path, err)
		}
	}
	return nil
}
