package ratelimit

import (
	"errors"
	"testing"
)

func TestAllowUnlimited(t *testing.T) {
	l := New(Config{})
	for i := 0; i < 1000; i++ {
		if err := l.Allow("seeker"); err != nil {
			t.Fatalf("unlimited limiter denied request %d: %v", i, err)
		}
	}
}

func TestAllowExhaustsBurst(t *testing.T) {
	l := New(Config{RequestsPerMinute: 60, BurstSize: 3})

	for i := 0; i < 3; i++ {
		if err := l.Allow("seeker"); err != nil {
			t.Fatalf("request %d denied: %v", i, err)
		}
	}
	// Bucket is empty; refill at 1/s cannot restore a token this fast.
	if err := l.Allow("seeker"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("request past burst err = %v, want ErrRateLimited", err)
	}
}

func TestBurstDefaultsToRate(t *testing.T) {
	l := New(Config{RequestsPerMinute: 2})

	if err := l.Allow("seeker"); err != nil {
		t.Fatalf("first request denied: %v", err)
	}
	if err := l.Allow("seeker"); err != nil {
		t.Fatalf("second request denied: %v", err)
	}
	if err := l.Allow("seeker"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("third request err = %v, want ErrRateLimited", err)
	}
}

func TestBucketsAreIndependent(t *testing.T) {
	l := New(Config{RequestsPerMinute: 60, BurstSize: 1})

	if err := l.Allow("a"); err != nil {
		t.Fatalf("seeker a denied: %v", err)
	}
	if err := l.Allow("a"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("seeker a second request err = %v", err)
	}
	// Seeker a's exhausted bucket must not affect seeker b.
	if err := l.Allow("b"); err != nil {
		t.Errorf("seeker b denied after a exhausted: %v", err)
	}
	if got := l.Size(); got != 2 {
		t.Errorf("tracked buckets = %d, want 2", got)
	}
}
