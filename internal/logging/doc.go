// Package logging assembles the slog loggers used by payloadseed.
//
// It owns the console and JSON handlers, the per-run JSON log tee, and
// context helpers that tag log lines with the run id, stage, and item index
// carried on a context. Log retention pruning also lives here.
package logging
