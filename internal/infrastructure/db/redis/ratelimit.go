package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter counts hits per key in fixed windows.
// Key format: ratelimit:<key>:<window_start_unix>
type RateLimiter struct {
	client redis.Cmdable
	max    int64
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter allows max hits per key in each window.
func NewRateLimiter(client redis.Cmdable, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, max: int64(max), window: window, now: time.Now}
}

// Allow records a hit for key and reports whether it is within the limit.
// The first hit of a window sets the expiry so stale windows clean up.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.key(key, l.now())

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	return incr.Val() <= l.max, nil
}

func (l *RateLimiter) key(key string, now time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%d", key, now.Truncate(l.window).Unix())
}
