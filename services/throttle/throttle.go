// Package throttle limits repeated failed logins.
package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Limiter counts failures per key over a fixed window.
type Limiter interface {
	// Blocked reports whether key reached the failure limit of the current window.
	Blocked(ctx context.Context, key string) (bool, error)
	// Fail records a failure for key.
	Fail(ctx context.Context, key string) error
	// Reset forgets the failures of key.
	Reset(ctx context.Context, key string) error
}

type redisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

var _ Limiter = (*redisLimiter)(nil)

func NewRedisLimiter(rdb *redis.Client, prefix string, limit int64, window time.Duration) Limiter {
	if prefix == "" {
		prefix = "throttle"
	}
	return &redisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

func (l *redisLimiter) key(key string) string {
	return fmt.Sprintf("%s:%s", l.prefix, key)
}

func (l *redisLimiter) Blocked(ctx context.Context, key string) (bool, error) {
	count, err := l.rdb.Get(ctx, l.key(key)).Int64()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, errors.Wrap(err, "reading failure count")
	}
	return count >= l.limit, nil
}

func (l *redisLimiter) Fail(ctx context.Context, key string) error {
	rkey := l.key(key)
	count, err := l.rdb.Incr(ctx, rkey).Result()
	if err != nil {
		return errors.Wrap(err, "incrementing failure count")
	}
	// the window starts at the first failure
	if count == 1 {
		if err = l.rdb.Expire(ctx, rkey, l.window).Err(); err != nil {
			return errors.Wrap(err, "setting failure window")
		}
	}
	return nil
}

func (l *redisLimiter) Reset(ctx context.Context, key string) error {
	return errors.Wrap(l.rdb.Del(ctx, l.key(key)).Err(), "resetting failure count")
}

type nopLimiter struct{}

// NewNopLimiter never blocks. It is used when redis is not configured.
func NewNopLimiter() Limiter { return nopLimiter{} }

func (nopLimiter) Blocked(context.Context, string) (bool, error) { return false, nil }
func (nopLimiter) Fail(context.Context, string) error            { return nil }
func (nopLimiter) Reset(context.Context, string) error           { return nil }
