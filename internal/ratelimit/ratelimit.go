// Package ratelimit implements a per-seeker token bucket rate limiter for
// the gateway. Thread-safe; tokens refill lazily on each Allow call, so no
// background goroutine is needed.
package ratelimit

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a seeker has exhausted their bucket.
var ErrRateLimited = errors.New("rate limit exceeded")

// Idle buckets older than this are pruned opportunistically.
const idleExpiry = 10 * time.Minute

// Config configures the limiter.
type Config struct {
	RequestsPerMinute int // Tokens added per minute. 0 = unlimited.
	BurstSize         int // Bucket capacity. 0 = RequestsPerMinute.
}

// Limiter hands out request tokens per seeker. Each seeker gets an
// independent bucket; one seeker cannot exhaust another's quota.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   float64
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// New creates a limiter. With RequestsPerMinute == 0, Allow always succeeds.
func New(cfg Config) *Limiter {
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = cfg.RequestsPerMinute
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    float64(cfg.RequestsPerMinute) / 60.0,
		burst:   float64(burst),
	}
}

// Allow consumes one token for the seeker, refilling first based on the
// time elapsed since the last call. Returns ErrRateLimited when empty.
func (l *Limiter) Allow(seekerID string) error {
	if l.rate <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[seekerID]
	if !ok {
		// First request starts with a full bucket.
		b = &bucket{tokens: l.burst, lastFill: now}
		l.buckets[seekerID] = b
		l.pruneLocked(now)
	}

	b.tokens += now.Sub(b.lastFill).Seconds() * l.rate
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.lastFill = now

	if b.tokens < 1 {
		return ErrRateLimited
	}
	b.tokens--
	return nil
}

// pruneLocked drops buckets idle long enough to have refilled completely.
func (l *Limiter) pruneLocked(now time.Time) {
	for id, b := range l.buckets {
		if now.Sub(b.lastFill) > idleExpiry {
			delete(l.buckets, id)
		}
	}
}

// Size returns the number of tracked buckets.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
