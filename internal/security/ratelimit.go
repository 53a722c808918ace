package security

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a request exceeds the rate limit.
var ErrRateLimited = errors.New("security: rate limit exceeded")

// Rate limited actions.
const (
	ActionDelivery = "delivery"
	ActionProbe    = "probe"
)

// RateLimitConfig holds per-minute limits for gateway actions.
// Zero disables the limit for that action.
type RateLimitConfig struct {
	DeliveriesPerMin int `yaml:"deliveries_per_min" validate:"gte=0"`
	ProbesPerMin     int `yaml:"probes_per_min" validate:"gte=0"`
}

// DefaultRateLimitConfig returns the limits used when none are configured.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		DeliveriesPerMin: 30,
		ProbesPerMin:     6,
	}
}

// RateLimiter implements sliding window rate limiting per action.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	window time.Duration
	limit  int
	events []time.Time
}

// NewRateLimiter creates a rate limiter with the given config.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		now:     time.Now,
		buckets: make(map[string]*bucket, 2),
	}
	if cfg.DeliveriesPerMin > 0 {
		rl.buckets[ActionDelivery] = &bucket{window: time.Minute, limit: cfg.DeliveriesPerMin}
	}
	if cfg.ProbesPerMin > 0 {
		rl.buckets[ActionProbe] = &bucket{window: time.Minute, limit: cfg.ProbesPerMin}
	}
	return rl
}

// Allow records an event for action. It returns ErrRateLimited when the
// window is full. Actions without a configured limit are always allowed.
func (rl *RateLimiter) Allow(action string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[action]
	if !ok {
		return nil
	}

	now := rl.now()
	b.evict(now)

	if len(b.events) >= b.limit {
		return ErrRateLimited
	}
	b.events = append(b.events, now)
	return nil
}

// RetryAfter returns how long until action has room again.
func (rl *RateLimiter) RetryAfter(action string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[action]
	if !ok {
		return 0
	}
	now := rl.now()
	b.evict(now)
	if len(b.events) < b.limit {
		return 0
	}
	return b.events[0].Add(b.window).Sub(now)
}

// evict drops events outside the window. Events are kept in order.
func (b *bucket) evict(now time.Time) {
	cutoff := now.Add(-b.window)
	i := 0
	for i < len(b.events) && !b.events[i].After(cutoff) {
		i++
	}
	if i > 0 {
		b.events = b.events[i:]
	}
}
