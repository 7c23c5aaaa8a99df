package seed

import "errors"

var (
	// ErrNoMediaCreated reports that the media stage finished without a
	// single successful item, so entities were not attempted.
	ErrNoMediaCreated = errors.New("no media items were created")
	// ErrNoMedia reports an entity stage started with an empty media set.
	ErrNoMedia = errors.New("entity stage requires at least one media record")
	// ErrFrozen reports an append to a media set after Freeze.
	ErrFrozen = errors.New("media set is frozen")
)
