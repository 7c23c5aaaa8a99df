package gate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Gate is a counting semaphore with instrumentation.
type Gate struct {
	sem    *semaphore.Weighted
	limit  int
	active atomic.Int64
	peak   atomic.Int64
}

// New returns a gate admitting at most limit concurrent holders.
func New(limit int) (*Gate, error) {
	if limit < 1 {
		return nil, fmt.Errorf("gate limit must be at least 1, got %d", limit)
	}
	return &Gate{sem: semaphore.NewWeighted(int64(limit)), limit: limit}, nil
}

// Acquire blocks until a slot is free or ctx is done. The returned release
// func frees the slot; calling it more than once has no further effect.
func (g *Gate) Acquire(ctx context.Context) (func(), error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	current := g.active.Add(1)
	for {
		peak := g.peak.Load()
		if current <= peak || g.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.active.Add(-1)
			g.sem.Release(1)
		})
	}, nil
}

// Do runs fn while holding a slot. The slot is released when fn returns or
// panics.
func (g *Gate) Do(ctx context.Context, fn func(context.Context) error) error {
	release, err := g.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// Limit reports the configured maximum number of holders.
func (g *Gate) Limit() int { return g.limit }

// InFlight reports the number of current holders.
func (g *Gate) InFlight() int { return int(g.active.Load()) }

// Peak reports the highest number of simultaneous holders observed.
func (g *Gate) Peak() int { return int(g.peak.Load()) }
