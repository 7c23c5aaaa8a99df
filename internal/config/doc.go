// Package config loads, normalizes, and validates payloadseed configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PAYLOAD_API_KEY and PAYLOAD_URL. The Config type centralizes every run
// parameter the seeding pipeline needs: item counts, concurrency limits,
// window sizes, inter-window delays, and the content store backend.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
