package plex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the proxy API base used when none is configured.
	DefaultBaseURL = "http://localhost/plexproxy/api"

	// Retry configuration for transient errors
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond

	maxErrorBody = 300
)

// Client talks to the Plex proxy API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retries    int
	retryWait  time.Duration
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetry configures retries for idempotent catalog requests.
func WithRetry(retries int, wait time.Duration) Option {
	return func(c *Client) {
		c.retries = retries
		c.retryWait = wait
	}
}

// New creates a client for the proxy API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		retries:    maxRetries,
		retryWait:  baseRetryWait,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient returns the underlying HTTP client.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Get performs a GET request with retries on network and server errors.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.request(ctx, http.MethodGet, path, c.retries, result)
}

// GetOnce performs a GET request without retries.
func (c *Client) GetOnce(ctx context.Context, path string, result any) error {
	return c.request(ctx, http.MethodGet, path, 0, result)
}

func (c *Client) request(ctx context.Context, method, path string, retries int, result any) error {
	fullURL := c.baseURL + path
	c.logger.Debug().Str("method", method).Str("url", fullURL).Msg("plex request")

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			wait := c.retryWait * time.Duration(1<<(attempt-1)) // exponential backoff
			c.logger.Debug().
				Int("attempt", attempt).
				Int("max", retries).
				Dur("wait", wait).
				AnErr("last_error", lastErr).
				Msg("plex retry")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Cache-Control", "no-store")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			c.logger.Debug().Err(err).Msg("plex network error")
			continue // Retry on network error
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		c.logger.Debug().Int("status", resp.StatusCode).Str("url", fullURL).Msg("plex response")

		// Retry on 5xx server errors
		if resp.StatusCode >= 500 {
			lastErr = newAPIError(resp, respBody)
			continue
		}

		// Don't retry 4xx errors
		if resp.StatusCode >= 400 {
			return newAPIError(resp, respBody)
		}

		if result != nil && len(respBody) > 0 {
			if err := decodeJSON(respBody, result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}

		return nil
	}

	if retries == 0 {
		return lastErr
	}
	return fmt.Errorf("request failed after %d retries: %w", retries, lastErr)
}

// decodeJSON decodes with json.Number so numeric ids keep their exact text.
func decodeJSON(data []byte, result any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(result)
}

// APIError represents a non-2xx response from the proxy.
type APIError struct {
	Status  int
	Message string
	Body    string
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	b := string(body)
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return &APIError{
		Status:  resp.StatusCode,
		Message: http.StatusText(resp.StatusCode),
		Body:    b,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plex API error %d: %s", e.Status, e.Message)
}

// IsNotFoundError checks if an error is a 404 from the proxy.
func IsNotFoundError(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// BuildURL builds a URL with query parameters.
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	u, _ := url.Parse(path)
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
