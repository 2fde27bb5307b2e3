package cache_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/hire-match/internal/cache"
	"github.com/oggyb/hire-match/internal/config"
)

func newCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	c := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNotificationCount_MissSetHit(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	_, ok, err := c.GetNotificationCount(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetNotificationCount(ctx, 7, 3))
	assert.Equal(t, cache.CountTTL, mr.TTL("notifications:count:7"))

	n, ok, err := c.GetNotificationCount(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)
}

func TestNotificationCount_Invalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	require.NoError(t, c.SetNotificationCount(ctx, 1, 1))
	require.NoError(t, c.SetNotificationCount(ctx, 2, 5))

	require.NoError(t, c.InvalidateNotificationCounts(ctx, 1, 2))
	assert.False(t, mr.Exists("notifications:count:1"))
	assert.False(t, mr.Exists("notifications:count:2"))

	require.NoError(t, c.InvalidateNotificationCounts(ctx))
}

func TestNotificationCount_GarbageIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	require.NoError(t, mr.Set("notifications:count:9", "not-a-number"))

	_, ok, err := c.GetNotificationCount(ctx, 9)
	require.NoError(t, err)
	assert.False(t, ok)
}
