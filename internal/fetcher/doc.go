// Package fetcher downloads image bytes from a picsum-compatible HTTP source.
//
// Every failure (transport error, non-2xx status, empty or oversized body)
// is returned as an error tagged with services.ErrFetch so callers can
// record the item as failed and move on.
package fetcher
