// Package gate bounds the number of concurrently running operations.
//
// A Gate admits at most Limit callers into its guarded region at once and
// tracks the current and peak number of holders for reporting. The seed
// pipeline builds one gate per stage so media ingestion and entity linking
// never share slots.
package gate
