// Package ratelimit locks out usernames after repeated failed logins.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const keyPrefix = "login:failures:"

// RateLimitResult is the lockout state of one username
type RateLimitResult struct {
	Failures         int
	IsLockedOut      bool
	LockoutRemaining time.Duration
}

// Guard tracks failed credential checks per username
type Guard interface {
	Check(ctx context.Context, username string) (RateLimitResult, error)
	RecordFailure(ctx context.Context, username string) (RateLimitResult, error)
	Reset(ctx context.Context, username string) error
}

// NoopGuard never locks anyone out
type NoopGuard struct{}

func (NoopGuard) Check(context.Context, string) (RateLimitResult, error) {
	return RateLimitResult{}, nil
}

func (NoopGuard) RecordFailure(context.Context, string) (RateLimitResult, error) {
	return RateLimitResult{}, nil
}

func (NoopGuard) Reset(context.Context, string) error {
	return nil
}

// RedisGuard keeps a failure counter per username that expires after the
// lockout window. Every failure pushes the expiry out again.
type RedisGuard struct {
	client      redis.Cmdable
	maxFailures int
	lockout     time.Duration
}

// NewRedisGuard creates a guard that locks a username once maxFailures is reached
func NewRedisGuard(client redis.Cmdable, maxFailures int, lockout time.Duration) *RedisGuard {
	return &RedisGuard{client: client, maxFailures: maxFailures, lockout: lockout}
}

// Check reports whether username is currently locked out
func (g *RedisGuard) Check(ctx context.Context, username string) (RateLimitResult, error) {
	key := keyPrefix + username
	failures, err := g.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return RateLimitResult{}, nil
	}
	if err != nil {
		return RateLimitResult{}, oops.Code("RATELIMIT_UNAVAILABLE").In("ratelimit").Wrap(err)
	}

	result := RateLimitResult{Failures: failures}
	if failures >= g.maxFailures {
		ttl, err := g.client.TTL(ctx, key).Result()
		if err != nil {
			return RateLimitResult{}, oops.Code("RATELIMIT_UNAVAILABLE").In("ratelimit").Wrap(err)
		}
		result.IsLockedOut = true
		result.LockoutRemaining = ttl
	}
	return result, nil
}

// RecordFailure counts one failed attempt and returns the new state
func (g *RedisGuard) RecordFailure(ctx context.Context, username string) (RateLimitResult, error) {
	key := keyPrefix + username

	var incr *redis.IntCmd
	_, err := g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, g.lockout)
		return nil
	})
	if err != nil {
		return RateLimitResult{}, oops.Code("RATELIMIT_UNAVAILABLE").In("ratelimit").Wrap(err)
	}

	result := RateLimitResult{Failures: int(incr.Val())}
	if result.Failures >= g.maxFailures {
		result.IsLockedOut = true
		result.LockoutRemaining = g.lockout
	}
	return result, nil
}

// Reset clears the counter after a successful login
func (g *RedisGuard) Reset(ctx context.Context, username string) error {
	if err := g.client.Del(ctx, keyPrefix+username).Err(); err != nil {
		return oops.Code("RATELIMIT_UNAVAILABLE").In("ratelimit").Wrap(err)
	}
	return nil
}

var _ Guard = (*RedisGuard)(nil)
