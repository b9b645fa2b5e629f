package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter is a fixed-window request counter shared by every API replica.
// Key format: ratelimit:<scope>:<client>
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter allows limit hits per window for each key.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow counts one hit against key. The window starts at the first hit.
func (l *RateLimiter) Allow(ctx context.Context, key string) (Result, error) {
	k := keyPrefix + key

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	if int(n) <= l.limit {
		return Result{Allowed: true, Remaining: l.limit - int(n)}, nil
	}

	ttl, err := l.client.PTTL(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit ttl: %w", err)
	}
	if ttl < 0 {
		// Lost the expiry between INCR and EXPIRE; restore it.
		_ = l.client.Expire(ctx, k, l.window).Err()
		ttl = l.window
	}
	return Result{Allowed: false, RetryAfter: ttl}, nil
}
