package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"payloadseed/internal/gate"
)

// Task produces the value for work item index.
type Task[T any] func(ctx context.Context, index int) (T, error)

// Outcome is the tagged result of one work item.
type Outcome[T any] struct {
	Index int
	Value T
	Err   error
}

// OK reports whether the item succeeded.
func (o Outcome[T]) OK() bool { return o.Err == nil }

// Window is a half-open index range [Start, End).
type Window struct {
	Start int
	End   int
}

// Size returns the number of items in the window.
func (w Window) Size() int { return w.End - w.Start }

// WindowSummary describes a finished window.
type WindowSummary struct {
	Number    int
	Window    Window
	Succeeded int
	Failed    int
	// Completed counts items finished across all windows so far.
	Completed int
	Total     int
	Duration  time.Duration
}

// SleepFunc pauses between windows; it must return early when ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options controls a batch run.
type Options struct {
	Total            int
	Gate             *gate.Gate
	WindowMultiplier int
	Delay            time.Duration
	OnWindow         func(WindowSummary)
	Sleep            SleepFunc
}

// ErrPanic marks a task that panicked.
var ErrPanic = errors.New("task panicked")

// Windows partitions [0, total) into consecutive windows of size.
func Windows(total, size int) []Window {
	if total <= 0 || size <= 0 {
		return nil
	}
	out := make([]Window, 0, (total+size-1)/size)
	for start := 0; start < total; start += size {
		end := min(start+size, total)
		out = append(out, Window{Start: start, End: end})
	}
	return out
}

// Run executes task for every index in [0, opts.Total) and returns outcomes
// ordered by index. When ctx is cancelled between windows the outcomes
// gathered so far are returned together with the context error.
func Run[T any](ctx context.Context, opts Options, task Task[T]) ([]Outcome[T], error) {
	if opts.Gate == nil {
		return nil, errors.New("batch: gate is required")
	}
	if opts.WindowMultiplier < 1 {
		return nil, fmt.Errorf("batch: window multiplier must be at least 1, got %d", opts.WindowMultiplier)
	}
	if task == nil {
		return nil, errors.New("batch: task is required")
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = SleepWithContext
	}

	windows := Windows(opts.Total, opts.Gate.Limit()*opts.WindowMultiplier)
	outcomes := make([]Outcome[T], 0, max(opts.Total, 0))
	for n, window := range windows {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		started := time.Now()
		results := runWindow(ctx, opts.Gate, window, task)
		outcomes = append(outcomes, results...)

		if opts.OnWindow != nil {
			summary := WindowSummary{
				Number:    n + 1,
				Window:    window,
				Completed: len(outcomes),
				Total:     opts.Total,
				Duration:  time.Since(started),
			}
			for _, r := range results {
				if r.OK() {
					summary.Succeeded++
				} else {
					summary.Failed++
				}
			}
			opts.OnWindow(summary)
		}

		if n < len(windows)-1 {
			if err := sleep(ctx, opts.Delay); err != nil {
				return outcomes, err
			}
		}
	}
	return outcomes, nil
}

func runWindow[T any](ctx context.Context, g *gate.Gate, window Window, task Task[T]) []Outcome[T] {
	results := make([]Outcome[T], window.Size())
	var group errgroup.Group
	for i := range results {
		index := window.Start + i
		group.Go(func() error {
			results[i] = runOne(ctx, g, index, task)
			return nil
		})
	}
	_ = group.Wait()
	return results
}

func runOne[T any](ctx context.Context, g *gate.Gate, index int, task Task[T]) (out Outcome[T]) {
	out.Index = index
	err := g.Do(ctx, func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: item %d: %v", ErrPanic, index, r)
			}
		}()
		out.Value, err = task(ctx, index)
		return err
	})
	if err != nil {
		var zero T
		out.Value = zero
		out.Err = err
	}
	return out
}

// SleepWithContext blocks for d, returning early if ctx is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
