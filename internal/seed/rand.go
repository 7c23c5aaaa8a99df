package seed

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Rand is a seedable random source safe for concurrent use.
type Rand struct {
	mu   sync.Mutex
	r    *rand.Rand
	seed uint64
}

// NewRand returns a source seeded with seed. A zero seed picks one from the
// clock.
func NewRand(seed uint64) *Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), seed: seed}
}

// Stream ids for ForItem.
const (
	streamMedia    uint64 = 0
	streamEntities uint64 = 1
)

// ForItem returns a private source for item index of stream. Its draws
// depend only on the seed, the stream and the index, never on the order in
// which concurrent items run.
func (r *Rand) ForItem(stream uint64, index int) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(r.seed, uint64(index)<<1|stream)), seed: r.seed}
}

// Seed returns the seed the source was built with.
func (r *Rand) Seed() uint64 { return r.seed }

// IntN returns a uniform value in [0, n). It panics if n <= 0.
func (r *Rand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.IntN(n)
}

// Uint64 returns a uniform 64-bit value.
func (r *Rand) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Uint64()
}
