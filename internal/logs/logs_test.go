package logs_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"payloadseed/internal/logging"
	"payloadseed/internal/logs"
)

func TestLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, offset, err := logs.Last(path, 2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("offset = %d, want 6", offset)
	}

	all, _, err := logs.Last(path, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("Last(0) = %#v, %v", all, err)
	}

	missing, offset, err := logs.Last(filepath.Join(t.TempDir(), "nope"), 5)
	if err != nil || missing != nil || offset != 0 {
		t.Fatalf("missing file: %#v %d %v", missing, offset, err)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, 6, 10*time.Millisecond, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("next\npartial"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "next" {
		t.Fatalf("expected only the complete line, got %#v", got)
	}
}

func TestListRunsAndResolve(t *testing.T) {
	logDir := t.TempDir()
	if _, err := logs.Resolve(logDir, ""); !errors.Is(err, logs.ErrNoRuns) {
		t.Fatalf("expected ErrNoRuns, got %v", err)
	}

	older := logging.RunLogPath(logDir, "aaaa1111")
	newer := logging.RunLogPath(logDir, "bbbb2222")
	for _, p := range []string{older, newer} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("{}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	runs, err := logs.ListRuns(logDir)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "bbbb2222" {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	latest, err := logs.Resolve(logDir, "")
	if err != nil || latest != newer {
		t.Fatalf("Resolve latest = %q, %v", latest, err)
	}
	named, err := logs.Resolve(logDir, "aaaa1111")
	if err != nil || named != older {
		t.Fatalf("Resolve named = %q, %v", named, err)
	}
	if _, err := logs.Resolve(logDir, "missing"); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestParseRecordFromRunHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	handler, closer, err := logging.NewRunFileHandler(path, "debug")
	if err != nil {
		t.Fatalf("NewRunFileHandler: %v", err)
	}
	logger := slog.New(handler)
	logger.Warn("media item failed",
		logging.String(logging.FieldComponent, "media"),
		logging.String(logging.FieldStage, "media"),
		logging.Int(logging.FieldItemIndex, 12),
		logging.String(logging.FieldEventType, "item_failed"),
		logging.Error(errors.New("boom")),
	)
	logger.Debug("batch complete", logging.String(logging.FieldStage, "entities"))
	closer.Close()

	lines, _, err := logs.Last(path, 0)
	if err != nil || len(lines) != 2 {
		t.Fatalf("Last = %d lines, %v", len(lines), err)
	}
	rec, err := logs.ParseRecord(lines[0])
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if rec.Level != "warn" || rec.Stage != "media" || rec.ItemIndex == nil || *rec.ItemIndex != 12 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Fields["error"] != "boom" {
		t.Fatalf("fields = %#v", rec.Fields)
	}
	formatted := rec.Format()
	if !strings.Contains(formatted, "WARN media: Media #12 · media item failed error=boom") {
		t.Fatalf("Format() = %q", formatted)
	}

	second, err := logs.ParseRecord(lines[1])
	if err != nil {
		t.Fatal(err)
	}
	if (logs.Filter{MinLevel: "info"}).Match(second) {
		t.Fatal("debug record should not pass an info filter")
	}
	if !(logs.Filter{Stage: "media", EventType: "item_failed"}).Match(rec) {
		t.Fatal("warn record should match its stage and event")
	}
	if (logs.Filter{Stage: "entities"}).Match(rec) {
		t.Fatal("stage filter should reject other stages")
	}
	if _, err := logs.ParseRecord("not json"); err == nil {
		t.Fatal("expected decode error")
	}
}
