package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Client talks to the HobbyNet REST API. It exposes two channels: public
// calls never attach credentials, private calls inject the bearer token
// and trigger the registered unauthorized hook on a 401, mirroring the
// global-logout interceptor.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *zap.Logger

	mu             sync.Mutex
	token          string
	notified       bool
	onUnauthorized func()
}

// New creates a client for the given base URL (no trailing slash).
func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
		logger:  logger,
	}
}

// SetToken installs the bearer credential used by private calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.notified = false
	c.mu.Unlock()
}

// ClearToken removes the bearer credential.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the current bearer credential.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// SetOnUnauthorized registers the hook invoked when any private call is
// rejected with 401. The hook fires at most once per installed token.
func (c *Client) SetOnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

func (c *Client) public(ctx context.Context, method, path string, body, out any, kind Kind) error {
	return c.do(ctx, method, path, body, out, kind, false)
}

func (c *Client) private(ctx context.Context, method, path string, body, out any, kind Kind) error {
	return c.do(ctx, method, path, body, out, kind, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, kind Kind, authed bool) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if token := c.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &Error{Kind: kind, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := decodeDetail(resp.Body)
		if resp.StatusCode == http.StatusUnauthorized && authed {
			c.notifyUnauthorized()
		}
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail))
		return &Error{Kind: kind, StatusCode: resp.StatusCode, Detail: detail}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: kind, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// notifyUnauthorized fires the hook once per token. The rejected token
// is cleared first so the hook's own teardown cannot re-enter.
func (c *Client) notifyUnauthorized() {
	c.mu.Lock()
	if c.notified {
		c.mu.Unlock()
		return
	}
	c.notified = true
	c.token = ""
	fn := c.onUnauthorized
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func decodeDetail(r io.Reader) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return ""
	}
	return payload.Detail
}
