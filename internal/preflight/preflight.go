package preflight

import (
	"context"
	"strings"

	"payloadseed/internal/config"
	"payloadseed/internal/fetcher"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Pinger is the part of a content store the readiness check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober confirms that an asset URL answers.
type Prober interface {
	Probe(ctx context.Context, url string) error
}

// Deps carries the live collaborators used by network checks. Nil fields
// skip the corresponding check.
type Deps struct {
	Store  Pinger
	Source Prober
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, deps Deps) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Staging free space", cfg.Paths.StagingDir, cfg.Preflight.MinFreeMiB),
	}

	if cfg.Store.Backend == config.BackendSQLite {
		results = append(results, CheckDirectoryAccess("Uploads directory", cfg.Store.UploadsDir))
	}

	if deps.Source != nil {
		results = append(results, CheckSource(ctx, deps.Source, sampleURL(cfg)))
	}
	if deps.Store != nil {
		results = append(results, CheckStore(ctx, storeName(cfg), deps.Store))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summary joins failed check names for error messages.
func Summary(failed []Result) string {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, r.Name+": "+r.Detail)
	}
	return strings.Join(parts, "; ")
}

func sampleURL(cfg *config.Config) string {
	return fetcher.URLBuilder{BaseURL: cfg.Source.BaseURL, Width: cfg.Source.Width, Height: cfg.Source.Height}.Sample()
}

func storeName(cfg *config.Config) string {
	if cfg.Store.Backend == config.BackendPayload {
		return "Payload API"
	}
	return "SQLite store"
}
