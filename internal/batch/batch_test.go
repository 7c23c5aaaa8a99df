package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"payloadseed/internal/gate"
)

func newGate(t *testing.T, limit int) *gate.Gate {
	t.Helper()
	g, err := gate.New(limit)
	if err != nil {
		t.Fatalf("gate.New: %v", err)
	}
	return g
}

func noSleep(calls *atomic.Int32) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		calls.Add(1)
		return ctx.Err()
	}
}

func TestWindows(t *testing.T) {
	tests := []struct {
		total, size int
		want        []int
	}{
		{20, 9, []int{9, 9, 2}},
		{18, 9, []int{9, 9}},
		{4, 9, []int{4}},
		{0, 9, nil},
	}
	for _, tt := range tests {
		got := Windows(tt.total, tt.size)
		if len(got) != len(tt.want) {
			t.Fatalf("Windows(%d, %d) = %v", tt.total, tt.size, got)
		}
		next := 0
		for i, w := range got {
			if w.Start != next || w.Size() != tt.want[i] {
				t.Fatalf("Windows(%d, %d)[%d] = %+v", tt.total, tt.size, i, w)
			}
			next = w.End
		}
	}
}

func TestRunEnforcesWindowBarrier(t *testing.T) {
	for _, total := range []int{12, 14, 3} {
		t.Run(fmt.Sprintf("N=%d", total), func(t *testing.T) {
			const limit, multiplier = 2, 2 // W = 4
			g := newGate(t, limit)

			var (
				mu       sync.Mutex
				finished = map[int]bool{}
			)
			var sleeps atomic.Int32
			task := func(ctx context.Context, index int) (int, error) {
				windowStart := (index / (limit * multiplier)) * (limit * multiplier)
				mu.Lock()
				for j := 0; j < windowStart; j++ {
					if !finished[j] {
						mu.Unlock()
						return 0, fmt.Errorf("item %d started before item %d finished", index, j)
					}
				}
				for j := range finished {
					if j >= windowStart+limit*multiplier {
						mu.Unlock()
						return 0, fmt.Errorf("item %d of a later window finished before item %d", j, index)
					}
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				finished[index] = true
				mu.Unlock()
				return index * 10, nil
			}

			outcomes, err := Run(context.Background(), Options{
				Total:            total,
				Gate:             g,
				WindowMultiplier: multiplier,
				Sleep:            noSleep(&sleeps),
			}, task)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(outcomes) != total {
				t.Fatalf("outcomes = %d, want %d", len(outcomes), total)
			}
			for i, o := range outcomes {
				if o.Index != i || !o.OK() || o.Value != i*10 {
					t.Fatalf("outcome %d = %+v", i, o)
				}
			}
			if g.Peak() > limit {
				t.Fatalf("gate peak %d exceeds %d", g.Peak(), limit)
			}
			wantSleeps := int32(len(Windows(total, limit*multiplier)) - 1)
			if sleeps.Load() != wantSleeps {
				t.Fatalf("sleeps = %d, want %d", sleeps.Load(), wantSleeps)
			}
		})
	}
}

func TestRunWindowSizesAndDelays(t *testing.T) {
	g := newGate(t, 3)
	var sizes []int
	var completed []int
	var sleeps atomic.Int32
	outcomes, err := Run(context.Background(), Options{
		Total:            20,
		Gate:             g,
		WindowMultiplier: 3,
		Delay:            time.Hour,
		Sleep:            noSleep(&sleeps),
		OnWindow: func(s WindowSummary) {
			sizes = append(sizes, s.Window.Size())
			completed = append(completed, s.Completed)
		},
	}, func(ctx context.Context, index int) (struct{}, error) {
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != 20 {
		t.Fatalf("outcomes = %d", len(outcomes))
	}
	if fmt.Sprint(sizes) != "[9 9 2]" {
		t.Fatalf("window sizes = %v", sizes)
	}
	if fmt.Sprint(completed) != "[9 18 20]" {
		t.Fatalf("completed = %v", completed)
	}
	if sleeps.Load() != 2 {
		t.Fatalf("sleeps = %d, want 2", sleeps.Load())
	}
	if g.Peak() > 3 {
		t.Fatalf("peak = %d", g.Peak())
	}
}

func TestRunRecordsFailuresWithoutCancellingSiblings(t *testing.T) {
	g := newGate(t, 2)
	boom := errors.New("boom")
	var sleeps atomic.Int32
	outcomes, err := Run(context.Background(), Options{
		Total:            6,
		Gate:             g,
		WindowMultiplier: 3,
		Sleep:            noSleep(&sleeps),
	}, func(ctx context.Context, index int) (int, error) {
		switch index {
		case 1:
			return 0, boom
		case 4:
			panic("kaboom")
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return index, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var failed int
	for _, o := range outcomes {
		if !o.OK() {
			failed++
		}
	}
	if failed != 2 {
		t.Fatalf("failed = %d, want 2", failed)
	}
	if !errors.Is(outcomes[1].Err, boom) {
		t.Fatalf("outcome 1 err = %v", outcomes[1].Err)
	}
	if !errors.Is(outcomes[4].Err, ErrPanic) {
		t.Fatalf("outcome 4 err = %v", outcomes[4].Err)
	}
	if outcomes[5].Value != 5 {
		t.Fatalf("outcome 5 = %+v", outcomes[5])
	}
	if g.InFlight() != 0 {
		t.Fatalf("slots leaked: %d", g.InFlight())
	}
}

func TestRunStopsBetweenWindowsOnCancel(t *testing.T) {
	g := newGate(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var launched atomic.Int32
	outcomes, err := Run(ctx, Options{
		Total:            10,
		Gate:             g,
		WindowMultiplier: 4,
		Delay:            time.Hour,
		OnWindow:         func(WindowSummary) { cancel() },
	}, func(ctx context.Context, index int) (int, error) {
		launched.Add(1)
		return index, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(outcomes) != 4 || launched.Load() != 4 {
		t.Fatalf("outcomes = %d launched = %d, want 4", len(outcomes), launched.Load())
	}
}

func TestRunValidatesOptions(t *testing.T) {
	task := func(context.Context, int) (int, error) { return 0, nil }
	if _, err := Run(context.Background(), Options{Total: 1, WindowMultiplier: 1}, task); err == nil {
		t.Fatal("expected error without gate")
	}
	if _, err := Run(context.Background(), Options{Total: 1, Gate: newGate(t, 1)}, task); err == nil {
		t.Fatal("expected error for zero multiplier")
	}
}

func TestSleepWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepWithContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if err := SleepWithContext(context.Background(), 0); err != nil {
		t.Fatalf("zero sleep err = %v", err)
	}
}
