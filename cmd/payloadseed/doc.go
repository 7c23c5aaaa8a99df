// Package main hosts the payloadseed CLI entrypoint and command graph.
//
// The Cobra-based command tree loads configuration once, then hands off to
// the internal packages: seed runs the media and centre stages, preflight
// checks paths and services, staging lists and cleans leftover run
// directories, and store inspects the local SQLite backend.
//
// Keep this package lean: new behaviour belongs in the internal packages and
// is only surfaced here through commands or flags.
package main
