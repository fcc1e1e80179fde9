package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kugather/signup-verification/internal/core/ports"
)

type counter struct {
	count     int
	expiresAt time.Time
}

// RateLimitCounter keeps fixed-window counters in process memory.
type RateLimitCounter struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
}

func NewRateLimitCounter() *RateLimitCounter {
	return &RateLimitCounter{counters: make(map[string]*counter), now: time.Now}
}

var _ ports.RateLimitRepository = (*RateLimitCounter)(nil)

func (r *RateLimitCounter) IncrementWindow(_ context.Context, key string, window time.Duration, ttl time.Duration) (int, time.Time, error) {
	now := r.now()
	windowStart := now.Truncate(window)
	k := key + "@" + windowStart.Format(time.RFC3339)

	r.mu.Lock()
	defer r.mu.Unlock()
	for ck, c := range r.counters {
		if !now.Before(c.expiresAt) {
			delete(r.counters, ck)
		}
	}
	c, ok := r.counters[k]
	if !ok {
		c = &counter{}
		r.counters[k] = c
	}
	c.count++
	c.expiresAt = now.Add(ttl)
	return c.count, windowStart, nil
}
