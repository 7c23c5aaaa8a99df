// Package logs reads the per-run JSON logs written under log_dir/runs.
//
// It locates run logs (newest first), returns the last N lines of a file with
// bounded memory, follows a file for new lines, and decodes lines into
// Records that can be filtered by level, stage, and event type.
package logs
