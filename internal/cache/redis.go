package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oggyb/hire-match/internal/config"
	"github.com/redis/go-redis/v9"
)

// CountTTL is how long a cached counter lives without being touched.
const CountTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForNotificationCount generates Redis key for a user's notification count
func (c *RedisCache) KeyForNotificationCount(userID uint64) string {
	return fmt.Sprintf("notifications:count:%d", userID)
}

// SetNotificationCount stores a freshly computed count. Always refreshes TTL.
func (c *RedisCache) SetNotificationCount(ctx context.Context, userID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForNotificationCount(userID), count, CountTTL).Err()
}

// GetNotificationCount returns the cached count; ok is false on a cache miss.
func (c *RedisCache) GetNotificationCount(ctx context.Context, userID uint64) (count int64, ok bool, err error) {
	key := c.KeyForNotificationCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat garbage as a miss
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, CountTTL).Err()
	return n, true, nil
}

// InvalidateNotificationCounts drops cached counts so the next read hits the DB.
func (c *RedisCache) InvalidateNotificationCounts(ctx context.Context, userIDs ...uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, c.KeyForNotificationCount(id))
	}
	return c.Client.Del(ctx, keys...).Err()
}
