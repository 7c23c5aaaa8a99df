package fetcher

import (
	"fmt"
	"strings"
)

// IntSource yields non-negative pseudo-random integers below n.
type IntSource interface {
	IntN(n int) int
}

// URLBuilder composes picsum-style asset URLs.
type URLBuilder struct {
	BaseURL string
	Width   int
	Height  int
	Random  IntSource
}

// cacheBustRange bounds the random query value that defeats CDN caching.
const cacheBustRange = 1_000_000

// Build returns <base>/<width>/<height>?random=<n>.
func (b URLBuilder) Build() string {
	base := strings.TrimRight(b.BaseURL, "/")
	n := 0
	if b.Random != nil {
		n = b.Random.IntN(cacheBustRange)
	}
	return fmt.Sprintf("%s/%d/%d?random=%d", base, b.Width, b.Height, n)
}

// Sample returns a URL without the cache-busting query, used for probes.
func (b URLBuilder) Sample() string {
	return fmt.Sprintf("%s/%d/%d", strings.TrimRight(b.BaseURL, "/"), b.Width, b.Height)
}
