package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"payloadseed/internal/config"
)

const userAgent = "payloadseed/0.1"

// RunSummary is the subset of a finished run worth announcing.
type RunSummary struct {
	RunID          string
	MediaCreated   int
	MediaFailed    int
	CentresCreated int
	CentresFailed  int
	Duration       time.Duration
	Interrupted    bool
}

// Service announces run milestones.
type Service interface {
	NotifyRunStarted(ctx context.Context, runID string, media, centres int) error
	NotifyRunCompleted(ctx context.Context, summary RunSummary) error
	NotifyRunFailed(ctx context.Context, runID string, err error) error
	TestNotification(ctx context.Context) error
}

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotifyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewNtfy(topic, &http.Client{Timeout: timeout})
}

// NewNtfy returns a Service posting to the ntfy topic URL endpoint.
func NewNtfy(endpoint string, client HTTPDoer) Service {
	return &ntfyService{endpoint: endpoint, client: client}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   HTTPDoer
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, runID string, media, centres int) error {
	data := payload{
		title:    "payloadseed - Run Started",
		message:  fmt.Sprintf("Run %s: seeding %d media items and %d centres", runID, media, centres),
		tags:     []string{"payloadseed", "run", "started"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, s RunSummary) error {
	duration := s.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	title := "payloadseed - Run Complete"
	tags := []string{"payloadseed", "run", "completed"}
	failed := s.MediaFailed + s.CentresFailed
	switch {
	case s.Interrupted:
		title = "payloadseed - Run Interrupted"
		tags = []string{"payloadseed", "run", "interrupted"}
	case failed > 0:
		title = "payloadseed - Run Complete (with errors)"
	}

	message := fmt.Sprintf("Run %s: %d media items and %d centres created in %s",
		s.RunID, s.MediaCreated, s.CentresCreated, duration)
	if failed > 0 {
		message = fmt.Sprintf("%s\nFailed: %d media, %d centres", message, s.MediaFailed, s.CentresFailed)
	}

	return n.send(ctx, payload{title: title, message: message, tags: tags})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, runID string, err error) error {
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "payloadseed - Run Failed",
		message:  fmt.Sprintf("Run %s failed: %s", runID, reason),
		tags:     []string{"payloadseed", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "payloadseed - Test",
		message:  "Notification system test",
		tags:     []string{"payloadseed", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, string, int, int) error { return nil }
func (noopService) NotifyRunCompleted(context.Context, RunSummary) error     { return nil }
func (noopService) NotifyRunFailed(context.Context, string, error) error     { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }
