// Package security holds request throttling primitives.
package security

import (
	"context"
	"fmt"
	"time"

	"github.com/agrofarm/market/internal/cache"
)

// RateLimiter throttles repeated actions such as login attempts or
// bursts from a single client IP.
type RateLimiter struct {
	store cache.Store
}

// RateResult describes the outcome of an Allow call.
type RateResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// NewRateLimiter builds a limiter on top of the cache store.
func NewRateLimiter(store cache.Store) (*RateLimiter, error) {
	if store == nil {
		return nil, fmt.Errorf("security: rate limiter requires a cache store")
	}
	return &RateLimiter{store: store.Namespace("rate")}, nil
}

// Allow reports whether key may perform another action within the
// current window. The window starts at the first action and is not
// extended by subsequent ones.
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (RateResult, error) {
	if limit <= 0 {
		return RateResult{}, fmt.Errorf("security: limit must be positive")
	}
	if window <= 0 {
		window = time.Minute
	}

	ttl := window
	if remain, ok := l.store.TTL(ctx, key); ok && remain > 0 {
		ttl = remain
	}

	current, err := l.store.Increment(ctx, key, 1, ttl)
	if err != nil {
		return RateResult{}, fmt.Errorf("security: rate counter: %w", err)
	}

	remaining := limit - int(current)
	if remaining < 0 {
		remaining = 0
	}
	return RateResult{
		Allowed:   current <= int64(limit),
		Remaining: remaining,
		ResetAt:   time.Now().UTC().Add(ttl),
	}, nil
}

// Reset clears the counter for key.
func (l *RateLimiter) Reset(ctx context.Context, key string) {
	l.store.Delete(ctx, key)
}
