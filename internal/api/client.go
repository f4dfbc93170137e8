// Package api holds the engine's HTTP boundary: a REST client for the
// paginated run-history collaborator, and a read-only relay server that
// re-serves the store's merged views to dashboard consumers over SSE.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/theanh9911/agno-console/internal/logging"
	"github.com/theanh9911/agno-console/internal/run"
)

const defaultPageSize = 50

// Client talks to the OS REST API. It implements engine.SnapshotFetcher.
type Client struct {
	baseURL     string
	securityKey string
	httpc       *http.Client
	logger      *logging.Logger
	pageSize    int
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithSecurityKey sets the bearer token sent on every request.
func WithSecurityKey(key string) ClientOption {
	return func(c *Client) { c.securityKey = key }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.httpc = h
		}
	}
}

// WithPageSize sets the page size used when walking run history.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// NewClient creates a REST client for the given base URL.
func NewClient(baseURL string, logger *logging.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Client{
		baseURL:  baseURL,
		httpc:    &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// runsPage is the paginated "list runs for session" response. Some
// deployments return a bare array; both shapes decode.
type runsPage struct {
	Data []*run.WorkflowRun `json:"data"`
	Meta struct {
		Page       int `json:"page"`
		TotalPages int `json:"total_pages"`
	} `json:"meta"`
}

// ListRuns walks every page of the session's run history and returns the
// concatenated result, oldest page first.
func (c *Client) ListRuns(ctx context.Context, sessionID string) ([]*run.WorkflowRun, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("api: session id required")
	}

	var all []*run.WorkflowRun
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s/sessions/%s/runs?limit=%d&page=%d",
			c.baseURL, url.PathEscape(sessionID), c.pageSize, page)

		body, err := c.get(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		runs, totalPages, err := decodeRunsPage(body)
		if err != nil {
			return nil, fmt.Errorf("api: decoding runs for session %s: %w", sessionID, err)
		}
		all = append(all, runs...)

		if totalPages == 0 || page >= totalPages {
			return all, nil
		}
	}
}

func decodeRunsPage(body []byte) ([]*run.WorkflowRun, int, error) {
	var page runsPage
	if err := json.Unmarshal(body, &page); err == nil && page.Data != nil {
		return page.Data, page.Meta.TotalPages, nil
	}
	var bare []*run.WorkflowRun
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, 0, err
	}
	return bare, 0, nil
}

// RenameSession updates a session's display name.
func (c *Client) RenameSession(ctx context.Context, sessionID, name string) error {
	payload, _ := json.Marshal(map[string]string{"name": name})
	endpoint := fmt.Sprintf("%s/sessions/%s/rename", c.baseURL, url.PathEscape(sessionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("api: building rename request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("api: rename session %s: %w", sessionID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("api: rename session %s: status %d", sessionID, resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("api: building request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api: %s: status %d", endpoint, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 32<<20))
}

func (c *Client) authorize(req *http.Request) {
	if c.securityKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.securityKey)
	}
}
