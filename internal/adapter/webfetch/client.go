// Package webfetch implements the fetch port over net/http.
package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avishiprsd/llm-automation-agent/internal/port/fetch"
	"github.com/avishiprsd/llm-automation-agent/internal/resilience"
)

const userAgent = "llm-automation-agent/1.0"

// Client fetches documents with a size cap and an optional circuit breaker.
type Client struct {
	httpClient   *http.Client
	maxBodyBytes int64
	breaker      *resilience.Breaker
}

var (
	_ fetch.Fetcher       = (*Client)(nil)
	_ fetch.TextExtractor = (*Client)(nil)
)

// NewClient creates a Client. Bodies larger than maxBodyBytes are rejected
// with fetch.ErrTooLarge; maxBodyBytes <= 0 disables the cap.
func NewClient(timeout time.Duration, maxBodyBytes int64) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		maxBodyBytes: maxBodyBytes,
	}
}

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// SetHTTPClient replaces the underlying HTTP client, e.g. to add tracing.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// Get performs one GET. Non-2xx answers wrap fetch.ErrStatus and oversized
// bodies wrap fetch.ErrTooLarge.
func (c *Client) Get(ctx context.Context, url string) (*fetch.Response, error) {
	var out *fetch.Response
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json,text/html;q=0.9,*/*;q=0.8")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		var body io.Reader = resp.Body
		if c.maxBodyBytes > 0 {
			body = io.LimitReader(resp.Body, c.maxBodyBytes+1)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("%w: %s", fetch.ErrStatus, resp.Status)
		}
		if c.maxBodyBytes > 0 && int64(len(data)) > c.maxBodyBytes {
			return fmt.Errorf("%w: limit %d bytes", fetch.ErrTooLarge, c.maxBodyBytes)
		}

		out = &fetch.Response{
			StatusCode:  resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        data,
		}
		return nil
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return nil, fmt.Errorf("webfetch: %w", err)
	}
	return out, nil
}
