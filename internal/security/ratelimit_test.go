package security

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRateLimiter_AllowWithinLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{DeliveriesPerMin: 3})
	for i := range 3 {
		if err := rl.Allow(ActionDelivery); err != nil {
			t.Fatalf("Allow() #%d error: %v", i, err)
		}
	}
	if err := rl.Allow(ActionDelivery); !errors.Is(err, ErrRateLimited) {
		t.Errorf("Allow() = %v, want ErrRateLimited", err)
	}
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{ProbesPerMin: 1})
	rl.now = func() time.Time { return now }

	if err := rl.Allow(ActionProbe); err != nil {
		t.Fatalf("Allow() error: %v", err)
	}
	if err := rl.Allow(ActionProbe); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Allow() = %v, want ErrRateLimited", err)
	}

	now = now.Add(20 * time.Second)
	if got := rl.RetryAfter(ActionProbe); got != 40*time.Second {
		t.Errorf("RetryAfter() = %v, want 40s", got)
	}

	now = now.Add(40 * time.Second)
	if err := rl.Allow(ActionProbe); err != nil {
		t.Errorf("Allow() after window error: %v", err)
	}
}

func TestRateLimiter_Unlimited(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{})
	for range 100 {
		if err := rl.Allow(ActionDelivery); err != nil {
			t.Fatalf("Allow() error: %v", err)
		}
	}
	if got := rl.RetryAfter(ActionDelivery); got != 0 {
		t.Errorf("RetryAfter() = %v, want 0", got)
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	t.Parallel()

	cfg := DefaultRateLimitConfig()
	if cfg.DeliveriesPerMin != 30 || cfg.ProbesPerMin != 6 {
		t.Errorf("DefaultRateLimitConfig() = %+v", cfg)
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{DeliveriesPerMin: 50})
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow(ActionDelivery) == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d, want 50", allowed)
	}
}
