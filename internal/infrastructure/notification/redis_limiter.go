package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dailyCounterTTL = 48 * time.Hour

// RedisNotificationLimiter enforces the global per-day notification cap with
// a shared Redis counter. Suitable for distributed deployments where multiple
// instances run the collections batch.
type RedisNotificationLimiter struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisNotificationLimiter creates a limiter using an existing Redis client
func NewRedisNotificationLimiter(client *redis.Client, keyPrefix string) *RedisNotificationLimiter {
	if keyPrefix == "" {
		keyPrefix = "collections:notifications:"
	}
	return &RedisNotificationLimiter{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Allow reserves one slot of the daily global budget. The counter is keyed by
// calendar day and expires on its own; an exhausted budget is reported as
// false without error.
func (l *RedisNotificationLimiter) Allow(ctx context.Context, day time.Time, limit int) (bool, error) {
	key := l.keyPrefix + day.Format("2006-01-02")

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment notification counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, dailyCounterTTL).Err(); err != nil {
			return false, fmt.Errorf("failed to set counter expiry: %w", err)
		}
	}
	if count > int64(limit) {
		return false, nil
	}
	return true, nil
}

// Close closes the Redis client
func (l *RedisNotificationLimiter) Close() error {
	return l.client.Close()
}
