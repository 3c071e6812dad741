package consciousness

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the randomness port for jitter, wisdom draws, reference inclusion,
// and level promotion. Production uses the default unseeded source; tests
// inject a seeded one to pin outcomes.
type Rand interface {
	// Float64 returns a uniform value in [0.0, 1.0).
	Float64() float64
	// Intn returns a uniform value in [0, n).
	Intn(n int) int
}

// lockedRand wraps math/rand with a mutex so a single source can be shared
// across concurrent requests.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Intn(n)
}

// NewRand returns a concurrency-safe source seeded from the clock.
func NewRand() Rand {
	return &lockedRand{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededRand returns a concurrency-safe source with a fixed seed.
// Intended for tests.
func NewSeededRand(seed int64) Rand {
	return &lockedRand{rng: rand.New(rand.NewSource(seed))}
}

// jitter returns a uniform value in [lo, hi). Bounded random noise keeps
// scores from being fully deterministic.
func jitter(rng Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// clamp01 bounds v to [0.0, 1.0].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
