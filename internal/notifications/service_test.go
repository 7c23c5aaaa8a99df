package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"payloadseed/internal/config"
	"payloadseed/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var got []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunFailed(context.Background(), "abc", errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	srv, got := newNtfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL + "/seed-runs"
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	if err := svc.NotifyRunStarted(ctx, "r1", 10, 4); err != nil {
		t.Fatal(err)
	}
	if err := svc.NotifyRunCompleted(ctx, notifications.RunSummary{RunID: "r1", MediaCreated: 10, CentresCreated: 4, Duration: 90 * time.Second}); err != nil {
		t.Fatal(err)
	}
	if err := svc.NotifyRunCompleted(ctx, notifications.RunSummary{RunID: "r2", MediaCreated: 8, MediaFailed: 2, CentresCreated: 4}); err != nil {
		t.Fatal(err)
	}
	if err := svc.NotifyRunFailed(ctx, "r3", errors.New("no media items were created")); err != nil {
		t.Fatal(err)
	}

	want := []captured{
		{title: "payloadseed - Run Started", tags: "payloadseed,run,started", priority: "low", body: "Run r1: seeding 10 media items and 4 centres"},
		{title: "payloadseed - Run Complete", tags: "payloadseed,run,completed", body: "Run r1: 10 media items and 4 centres created in 1m30s"},
		{title: "payloadseed - Run Complete (with errors)", tags: "payloadseed,run,completed", body: "Run r2: 8 media items and 4 centres created in 0s\nFailed: 2 media, 0 centres"},
		{title: "payloadseed - Run Failed", tags: "payloadseed,error,alert", priority: "high", body: "Run r3 failed: no media items were created"},
	}
	if len(*got) != len(want) {
		t.Fatalf("expected %d requests, got %d", len(want), len(*got))
	}
	for i, w := range want {
		if (*got)[i] != w {
			t.Errorf("request %d = %+v, want %+v", i, (*got)[i], w)
		}
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusForbidden)
	svc := notifications.NewNtfy(srv.URL, srv.Client())
	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
