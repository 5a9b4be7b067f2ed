package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/slotbook/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) (*miniredis.Miniredis, *RedisDomainCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisDomainCache(client, "")
}

func TestRedisDomainCache(t *testing.T) {
	mr, c := newTestRedisCache(t)
	ctx := context.Background()

	_, hit, err := c.Get(ctx, "book.acme.com")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "book.acme.com", "acme", time.Minute))
	slug, hit, err := c.Get(ctx, "book.acme.com")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "acme", slug)
	assert.True(t, mr.Exists("tenant:domain:book.acme.com"))

	t.Run("negative entries", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "unknown.com", "", time.Minute))
		slug, hit, err := c.Get(ctx, "unknown.com")
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Empty(t, slug)
	})

	t.Run("ttl expiry", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "short.com", "short", time.Second))
		mr.FastForward(2 * time.Second)
		_, hit, err := c.Get(ctx, "short.com")
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("invalidate", func(t *testing.T) {
		require.NoError(t, c.Invalidate(ctx, "book.acme.com", "unknown.com", ""))
		_, hit, err := c.Get(ctx, "book.acme.com")
		require.NoError(t, err)
		assert.False(t, hit)
		require.NoError(t, c.Invalidate(ctx))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, c.Ping(ctx))
	})

	t.Run("backend failure is reported", func(t *testing.T) {
		mr.Close()
		_, _, err := c.Get(ctx, "book.acme.com")
		assert.Error(t, err)
		assert.Error(t, c.Ping(ctx))
	})
}

func TestInMemoryDomainCache(t *testing.T) {
	c := NewInMemoryDomainCache()
	defer c.Close()
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "book.acme.com", "acme", time.Minute))
	require.NoError(t, c.Set(ctx, "unknown.com", "", time.Minute))
	require.NoError(t, c.Set(ctx, "ignored.com", "x", 0))

	slug, hit, _ := c.Get(ctx, "book.acme.com")
	assert.True(t, hit)
	assert.Equal(t, "acme", slug)

	slug, hit, _ = c.Get(ctx, "unknown.com")
	assert.True(t, hit)
	assert.Empty(t, slug)

	_, hit, _ = c.Get(ctx, "ignored.com")
	assert.False(t, hit)

	now = now.Add(2 * time.Minute)
	_, hit, _ = c.Get(ctx, "book.acme.com")
	assert.False(t, hit)

	c.cleanup()
	assert.Equal(t, 0, c.Size())

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestDomainCacheFactory(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled redis uses memory", func(t *testing.T) {
		c, err := NewDomainCacheFactory(config.RedisConfig{}).Create(ctx)
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &InMemoryDomainCache{}, c)
	})

	t.Run("reachable redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.RedisConfig{Enabled: true, Host: mr.Host(), Port: mustPort(t, mr)}
		c, err := NewDomainCacheFactory(cfg).Create(ctx)
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &RedisDomainCache{}, c)
	})

	t.Run("unreachable redis without fallback", func(t *testing.T) {
		cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}
		_, err := NewDomainCacheFactory(cfg, WithInMemoryFallback(false)).Create(ctx)
		assert.Error(t, err)
	})

	t.Run("unreachable redis with fallback", func(t *testing.T) {
		cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}
		c, err := NewDomainCacheFactory(cfg).Create(ctx)
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &InMemoryDomainCache{}, c)
	})
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}
