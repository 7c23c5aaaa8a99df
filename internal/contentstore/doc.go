// Package contentstore defines the content store contract the seeder writes
// into, along with the record types it exchanges.
//
// Backends live in subpackages: sqlitestore persists into a local SQLite
// database and uploads directory, and payloadapi talks to a Payload CMS
// REST API. Every backend failure is tagged with services.ErrStore.
package contentstore
