package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"github.com/kursadbilgin/fare-alert-engine/internal/ratelimit"
	goredis "github.com/redis/go-redis/v9"
)

var allowScript = goredis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= tonumber(ARGV[1]) then
  return 0
end
if redis.call("INCR", KEYS[1]) == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[2])
end
return 1
`)

// releaseScript only decrements a live window key so a release that lands
// after the window expired cannot create a negative counter.
var releaseScript = goredis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current > 0 then
  redis.call("DECR", KEYS[1])
end
return 1
`)

var _ ratelimit.Limiter = (*RedisRateLimiter)(nil)

// RedisRateLimiter is a fixed-window limiter whose counters live in Redis,
// keyed by channel and window start. The script runs atomically, so
// concurrent callers share a single check-and-increment per channel.
type RedisRateLimiter struct {
	client *goredis.Client
	limits ratelimit.Limits
	window time.Duration
	now     func() time.Time
	script  *goredis.Script
	release *goredis.Script
}

func NewRedisRateLimiter(client *goredis.Client, limits ratelimit.Limits, window time.Duration) (*RedisRateLimiter, error) {
	return newRedisRateLimiter(client, limits, window, time.Now)
}

func newRedisRateLimiter(
	client *goredis.Client,
	limits ratelimit.Limits,
	window time.Duration,
	nowFn func() time.Time,
) (*RedisRateLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if window < time.Second {
		window = ratelimit.DefaultWindow
	}
	if nowFn == nil {
		nowFn = time.Now
	}

	return &RedisRateLimiter{
		client:  client,
		limits:  limits,
		window:  window,
		now:     nowFn,
		script:  allowScript,
		release: releaseScript,
	}, nil
}

func (r *RedisRateLimiter) Allow(ctx context.Context, channel domain.Channel) (bool, error) {
	if r == nil || r.client == nil || r.script == nil {
		return false, fmt.Errorf("rate limiter is not initialized")
	}
	if !channel.IsValid() {
		return false, fmt.Errorf("%w: invalid channel %q", domain.ErrValidation, channel)
	}

	limit, ok := r.limits[channel]
	if !ok {
		return true, nil
	}
	if limit <= 0 {
		return false, nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key := r.windowKey(channel)
	result, err := r.script.Run(ctx, r.client, []string{key}, limit, int64(r.window/time.Second)).Int()
	if err != nil {
		return false, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}

	return result == 1, nil
}

// Release hands back a slot in the channel's current window.
func (r *RedisRateLimiter) Release(ctx context.Context, channel domain.Channel) error {
	if r == nil || r.client == nil || r.release == nil {
		return fmt.Errorf("rate limiter is not initialized")
	}
	if limit, ok := r.limits[channel]; !ok || limit <= 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := r.release.Run(ctx, r.client, []string{r.windowKey(channel)}).Err(); err != nil {
		return fmt.Errorf("failed to release rate limit slot: %w", err)
	}
	return nil
}

func (r *RedisRateLimiter) windowKey(channel domain.Channel) string {
	windowStart := r.now().UTC().Truncate(r.window).Unix()
	return fmt.Sprintf("ratelimit:%s:%d", channel.Label(), windowStart)
}
