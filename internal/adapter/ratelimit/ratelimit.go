// Package ratelimit provides a Redis-backed token bucket for endpoints that
// must be limited consistently across API replicas. The in-process httprate
// limiter still guards the rest of the surface.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// tokenBucketScript refills and takes from a per-key bucket atomically.
// KEYS[1] = bucket key, ARGV = capacity, refill per second, now (unix ms).
var tokenBucketScript = redis.NewScript(`
local key      = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate     = tonumber(ARGV[2])
local now      = tonumber(ARGV[3])

local bucket = redis.call('HMGET', key, 'tokens', 'updated')
local tokens = tonumber(bucket[1])
local updated = tonumber(bucket[2])
if tokens == nil then
  tokens = capacity
  updated = now
end

local elapsed = math.max(0, now - updated) / 1000.0
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call('HSET', key, 'tokens', tokens, 'updated', now)
redis.call('PEXPIRE', key, 120000)
return allowed
`)

// Limiter is a distributed token-bucket rate limiter.
type Limiter struct {
	rdb      redis.UniversalClient
	capacity int
	// refillPerSec is derived from the per-minute budget.
	refillPerSec float64
	prefix       string
}

// New constructs a Limiter allowing perMinute requests per key with bursts
// up to the same budget.
func New(rdb redis.UniversalClient, prefix string, perMinute int) *Limiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &Limiter{
		rdb:          rdb,
		capacity:     perMinute,
		refillPerSec: float64(perMinute) / 60.0,
		prefix:       prefix,
	}
}

// Allow takes one token for the key, reporting whether the request may
// proceed. Redis errors fail open so a limiter outage never takes the API
// down with it.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now().UnixMilli()
	res, err := tokenBucketScript.Run(ctx, l.rdb,
		[]string{fmt.Sprintf("%s:%s", l.prefix, key)},
		l.capacity, l.refillPerSec, now,
	).Int()
	if err != nil {
		return true, err
	}
	return res == 1, nil
}

// Middleware limits by client key derived with keyFn (typically client IP).
func (l *Limiter) Middleware(keyFn func(*http.Request) string, onReject func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, _ := l.Allow(r.Context(), keyFn(r))
			if !ok {
				onReject(w, r, fmt.Errorf("%w: too many requests", domain.ErrRateLimited))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
