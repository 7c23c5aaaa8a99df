// Package notifications delivers seeding run notices via ntfy.
//
// NewService returns a no-op notifier when notifications.ntfy_topic is empty,
// so callers never branch on configuration. Long runs (tens of thousands of
// uploads) are the main reason to enable it.
package notifications
