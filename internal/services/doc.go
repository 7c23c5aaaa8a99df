// Package services defines shared utilities consumed by the seeding stages
// and the content store integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and work item
//     indexes for logging.
//   - Structured error markers plus the Wrap helper that let the pipeline
//     classify per-item failures (fetch, staging, store) without string
//     matching.
//
// Use these helpers when wiring new stage logic so failure handling and
// observability stay uniform across the pipeline.
package services
