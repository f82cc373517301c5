package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ilasdev/ilas/internal/session"
	"github.com/ilasdev/ilas/internal/shared"
)

// Client provides methods for making JSON requests to the ILAS backend
// through the authenticated pipeline.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL. The supplied http.Client
// is expected to carry a [Transport]; a nil client falls back to
// [http.DefaultClient] (no token handling).
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8000/api/"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/") + "/",
		httpClient: httpClient,
	}
}

// NewAuthenticated assembles the full pipeline described by cfg: a refresh
// coordinator, an authenticated transport reading from store, and a Client on
// top. This is the constructor the CLI and caller modules use.
func NewAuthenticated(cfg shared.APIConfig, store session.Store, logger *log.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	base := strings.TrimSuffix(cfg.BaseURL, "/") + "/"
	refreshURL := base + strings.TrimPrefix(cfg.RefreshPath, "/")

	// The refresh call bypasses the transport but keeps the same timeout.
	coordinator := NewCoordinator(store, refreshURL, &http.Client{Timeout: timeout}, logger)

	transport := NewTransport(store, TransportOptions{
		Refresher: coordinator,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})

	return NewClient(base, &http.Client{Transport: transport, Timeout: timeout})
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient exposes the underlying http.Client for callers that need the
// authenticated pipeline without the JSON helpers.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Response represents a raw API response with status and body.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Decode unmarshals the response body into result.
func (r *Response) Decode(result any) error {
	if err := json.Unmarshal(r.Body, result); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	return nil
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON body.
func (c *Client) Post(ctx context.Context, path string, payload any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, payload)
}

// Patch performs a PATCH request with the given JSON body.
func (c *Client) Patch(ctx context.Context, path string, payload any) (*Response, error) {
	return c.do(ctx, http.MethodPatch, path, payload)
}

// Delete performs a DELETE request to the specified path.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*Response, error) {
	fullURL := c.baseURL + strings.TrimPrefix(path, "/")

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
