package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "enrollment:"

// RedisCache memoizes enrollment answers in Redis so concurrent import
// workers share one cache. Entries carry the same short TTL as MemoryCache.
type RedisCache struct {
	client  *redis.Client
	checker Checker
	ttl     time.Duration
}

func NewRedisCache(client *redis.Client, checker Checker, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, checker: checker, ttl: ttl}
}

func (c *RedisCache) IsEnrolled(ctx context.Context, fileNo string) (bool, error) {
	key := redisKeyPrefix + fileNo
	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return val == "1", nil
	case !errors.Is(err, redis.Nil):
		return false, fmt.Errorf("enrollment: cache get %s: %w", fileNo, err)
	}

	enrolled, err := c.checker.IsEnrolled(ctx, fileNo)
	if err != nil {
		return false, err
	}

	stored := "0"
	if enrolled {
		stored = "1"
	}
	if err := c.client.Set(ctx, key, stored, c.ttl).Err(); err != nil {
		return false, fmt.Errorf("enrollment: cache set %s: %w", fileNo, err)
	}
	return enrolled, nil
}
