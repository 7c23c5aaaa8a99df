package payloadapi

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
	"sync"
	"time"

	"payloadseed/internal/config"
	"payloadseed/internal/contentstore"
	"payloadseed/internal/services"
)

// HTTPDoer describes the HTTP client used by the API client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	BaseURL          string
	APIKey           string
	MediaCollection  string
	EntityCollection string
	UserCollection   string
	Timeout          time.Duration
	HTTPClient       HTTPDoer
}

// Client talks to a Payload CMS instance.
type Client struct {
	baseURL          string
	apiKey           string
	mediaCollection  string
	entityCollection string
	userCollection   string
	client           HTTPDoer

	mu    sync.RWMutex
	token string
}

var _ contentstore.Store = (*Client)(nil)

// New constructs a Client.
func New(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:          strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		apiKey:           strings.TrimSpace(opts.APIKey),
		mediaCollection:  collectionOr(opts.MediaCollection, "media"),
		entityCollection: collectionOr(opts.EntityCollection, "centres"),
		userCollection:   collectionOr(opts.UserCollection, "users"),
		client:           client,
	}
}

// NewFromConfig builds a Client from the [store] config section.
func NewFromConfig(cfg *config.Config) *Client {
	return New(Options{
		BaseURL:          cfg.Store.PayloadURL,
		APIKey:           cfg.Store.APIKey,
		MediaCollection:  cfg.Store.MediaCollection,
		EntityCollection: cfg.Store.EntityCollection,
		UserCollection:   cfg.Store.UserCollection,
		Timeout:          cfg.StoreTimeout(),
	})
}

func collectionOr(value, fallback string) string {
	value = strings.Trim(strings.TrimSpace(value), "/")
	if value == "" {
		return fallback
	}
	return value
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return c.baseURL + "/api/" + strings.Join(escaped, "/")
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("%s API-Key %s", c.userCollection, c.apiKey))
		return
	}
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "JWT "+token)
	}
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// apiError is Payload's error envelope.
type apiError struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	Message string `json:"message"`
}

func (e apiError) summary() string {
	msgs := make([]string, 0, len(e.Errors)+1)
	for _, item := range e.Errors {
		if m := strings.TrimSpace(item.Message); m != "" {
			msgs = append(msgs, m)
		}
	}
	if len(msgs) == 0 && strings.TrimSpace(e.Message) != "" {
		msgs = append(msgs, strings.TrimSpace(e.Message))
	}
	return strings.Join(msgs, "; ")
}

// statusError carries a non-2xx response.
type statusError struct {
	Status  int
	Message string
}

func (e *statusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payload returned %d", e.Status)
	}
	return fmt.Sprintf("payload returned %d: %s", e.Status, e.Message)
}

// do sends req and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope apiError
		_ = json.Unmarshal(body, &envelope)
		return &statusError{Status: resp.StatusCode, Message: envelope.summary()}
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// Ping confirms the API answers. Any status below 500 counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(c.userCollection, "me"), nil)
	if err != nil {
		return services.Wrap(services.ErrStore, "store", "ping", c.baseURL, err)
	}
	err = c.do(req, nil)
	var se *statusError
	if errors.As(err, &se) && se.Status < http.StatusInternalServerError {
		return nil
	}
	if err != nil {
		return services.Wrap(services.ErrStore, "store", "ping", c.baseURL, err)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	if hc, ok := c.client.(*http.Client); ok {
		hc.CloseIdleConnections()
	}
	return nil
}
