package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"payloadseed/internal/staging"
	"payloadseed/internal/testsupport"
)

type seedPayload struct {
	Report struct {
		RunID string `json:"run_id"`
		Seed  uint64 `json:"seed"`
		Media struct {
			Succeeded int `json:"succeeded"`
			Failed    int `json:"failed"`
			Windows   int `json:"windows"`
		} `json:"media"`
		Entities struct {
			Succeeded int  `json:"succeeded"`
			Skipped   bool `json:"skipped"`
		} `json:"entities"`
		UserCreated bool `json:"user_created"`
	} `json:"report"`
	Summary string `json:"summary"`
	LogPath string `json:"log_path"`
	Error   string `json:"error"`
}

func TestSeedCommandPopulatesSQLiteStore(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"seed", "--json", "--media-count", "6", "--entity-count", "3", "--random-seed", "11"}, env.configPath)
	if err != nil {
		t.Fatalf("seed: %v\n%s", err, out)
	}

	var payload seedPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if payload.Report.Media.Succeeded != 6 || payload.Report.Entities.Succeeded != 3 {
		t.Fatalf("unexpected report %+v", payload.Report)
	}
	// 6 items with concurrency 2 and multiplier 2 make windows of 4 and 2.
	if payload.Report.Media.Windows != 2 {
		t.Fatalf("media windows = %d, want 2", payload.Report.Media.Windows)
	}
	if payload.Report.Seed != 11 || !payload.Report.UserCreated {
		t.Fatalf("unexpected report %+v", payload.Report)
	}
	if payload.Summary != "Created 6 media items and 3 centres." {
		t.Fatalf("summary = %q", payload.Summary)
	}
	if _, err := os.Stat(payload.LogPath); err != nil {
		t.Fatalf("run log missing: %v", err)
	}

	dirs, err := staging.List(env.cfg.Paths.StagingDir)
	if err != nil {
		t.Fatalf("staging.List: %v", err)
	}
	if len(dirs) != 0 {
		t.Fatalf("expected staging run dir removed, found %+v", dirs)
	}

	out, _, err = runCLI(t, []string{"store", "stats", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("store stats: %v", err)
	}
	var stats struct {
		Users        int64 `json:"users"`
		Media        int64 `json:"media"`
		Centres      int64 `json:"centres"`
		CentreImages int64 `json:"centre_images"`
	}
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v\n%s", err, out)
	}
	if stats.Users != 1 || stats.Media != 6 || stats.Centres != 3 || stats.CentreImages != 9 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestSeedCommandTextOutput(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCounts(3, 2))

	out, _, err := runCLI(t, []string{"seed"}, env.configPath)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	requireContains(t, out, "Created 3 media items and 2 centres.")
	requireContains(t, out, "Run log:")
}

func TestSeedCommandFailsPreflight(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Source.BaseURL = "http://127.0.0.1:1"
	testsupport.WriteConfig(t, env.configPath, env.cfg)

	_, stderr, err := runCLI(t, []string{"seed", "--media-count", "2", "--entity-count", "1"}, env.configPath)
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	requireContains(t, err.Error(), "Image source")
	requireContains(t, stderr, "FAIL")
}

func TestSeedCommandNoMediaSkipsCentres(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Source.BaseURL = "http://127.0.0.1:1"
	testsupport.WriteConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"seed", "--json", "--skip-preflight", "--media-count", "2", "--entity-count", "4"}, env.configPath)
	if err == nil {
		t.Fatal("expected error when no media was created")
	}
	var payload seedPayload
	if jsonErr := json.Unmarshal([]byte(out), &payload); jsonErr != nil {
		t.Fatalf("decode: %v\n%s", jsonErr, out)
	}
	if payload.Report.Media.Failed != 2 || !payload.Report.Entities.Skipped || payload.Error == "" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestSeedCommandRejectsInvalidFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"seed", "--media-concurrency", "0"}, env.configPath); err == nil {
		t.Fatal("expected validation error for zero concurrency")
	}
	if env.images.Requests() != 0 {
		t.Fatal("no requests expected when flags are invalid")
	}
}

func TestSeedCommandRefusesConcurrentRun(t *testing.T) {
	env := setupCLITestEnv(t)
	holder, err := staging.NewManager(env.cfg.Paths.StagingDir, "other")
	if err != nil {
		t.Fatal(err)
	}
	if err := holder.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer holder.Unlock()

	_, _, err = runCLI(t, []string{"seed", "--media-count", "1", "--entity-count", "1"}, env.configPath)
	if err == nil {
		t.Fatal("expected lock contention error")
	}
	if _, statErr := os.Stat(filepath.Join(env.cfg.Paths.StagingDir, ".payloadseed.lock")); statErr != nil {
		t.Fatalf("lock file missing: %v", statErr)
	}
}

func TestLogsCommandShowsLatestRun(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCounts(2, 1))

	if _, _, err := runCLI(t, []string{"seed"}, env.configPath); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--lines", "0", "--event", "run_complete"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "seeding complete")

	out, _, err = runCLI(t, []string{"logs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("logs list: %v", err)
	}
	requireContains(t, out, "1 run logs")
}
