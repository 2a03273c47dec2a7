package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/CameronXie/order-desk/internal/metrics"
)

const (
	maxResponseBytes = 32 << 20
	defaultTimeout   = 30 * time.Second
)

// Client talks to the remote /shopify order resource.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Collectors
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithMetrics records every request in m.
func WithMetrics(m *metrics.Collectors) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a Client rooted at baseURL, e.g. https://host/api/v1/shopify.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common response shape of mutating endpoints.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e *envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// do sends a JSON request and decodes the response into out when out is not nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (err error) {
	endpoint, _, _ := strings.Cut(path, "?")

	start := time.Now()
	defer func() {
		c.metrics.ObserveUpstream(endpoint, time.Since(start), err)
	}()

	return doJSON(ctx, c.httpClient, method, c.baseURL+path, endpoint, body, out)
}

// doJSON is shared by every remote collaborator.
func doJSON(ctx context.Context, hc *http.Client, method, url, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request for %s: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}

	var env envelope
	// Bodies that are not JSON objects (lists, plain text) leave env empty.
	_ = json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.message()
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: msg}
	}

	if env.Success != nil && !*env.Success {
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: env.message()}
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}

	return nil
}
