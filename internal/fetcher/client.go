package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"payloadseed/internal/config"
	"payloadseed/internal/services"
)

// HTTPDoer describes the HTTP client used by the fetcher.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher retrieves the bytes behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Func adapts a function into a Fetcher.
type Func func(ctx context.Context, url string) ([]byte, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

// Options configures a Client.
type Options struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxBytes          int64
	HTTPClient        HTTPDoer
}

// Client fetches remote assets over HTTP.
type Client struct {
	userAgent string
	maxBytes  int64
	limiter   *rate.Limiter
	client    HTTPDoer
}

// New constructs a Client. A zero RequestsPerSecond disables pacing.
func New(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	c := &Client{
		userAgent: strings.TrimSpace(opts.UserAgent),
		maxBytes:  opts.MaxBytes,
		client:    client,
	}
	if opts.RequestsPerSecond > 0 {
		burst := max(int(opts.RequestsPerSecond), 1)
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

// NewFromConfig builds a Client from the [source] config section.
func NewFromConfig(cfg *config.Config) *Client {
	return New(Options{
		UserAgent:         cfg.Source.UserAgent,
		Timeout:           cfg.SourceTimeout(),
		RequestsPerSecond: float64(cfg.Source.RequestsPerSecond),
		MaxBytes:          cfg.Source.MaxBytes,
	})
}

// Fetch downloads url and returns the response body.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, services.Wrap(services.ErrFetch, "fetch", "rate limit", "wait cancelled", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", "build request", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", "get", url, markTimeout(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, services.Wrap(services.ErrFetch, "fetch", "get", fmt.Sprintf("%s returned %d", url, resp.StatusCode), nil)
	}

	reader := io.Reader(resp.Body)
	if c.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, c.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", "read body", url, markTimeout(err))
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrFetch, "fetch", "read body", url+" returned an empty body", nil)
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, services.Wrap(services.ErrFetch, "fetch", "read body", fmt.Sprintf("%s exceeded %d bytes", url, c.maxBytes), nil)
	}
	return data, nil
}

// Probe issues a lightweight request to confirm the source answers.
func (c *Client) Probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return services.Wrap(services.ErrFetch, "fetch", "probe", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrFetch, "fetch", "probe", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return services.Wrap(services.ErrFetch, "fetch", "probe", fmt.Sprintf("%s returned %d", url, resp.StatusCode), nil)
	}
	return nil
}

// markTimeout tags deadline and client timeout errors with
// services.ErrTimeout.
func markTimeout(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", services.ErrTimeout, err)
	}
	return err
}

// IsTransient reports whether err looks like a condition that might clear on
// its own (timeouts, throttling, gateway errors).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, services.ErrTimeout) {
		return true
	}
	message := strings.ToLower(err.Error())
	for _, token := range []string{
		"returned 429", "returned 502", "returned 503", "returned 504",
		"timeout", "deadline exceeded", "connection reset", "connection refused",
	} {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}
