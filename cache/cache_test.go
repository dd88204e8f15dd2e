package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-assistant/config"
)

func TestMemoryCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache().WithClock(func() time.Time { return now })

	require.NoError(t, c.Set(ctx, "menu", []byte("pizza"), time.Hour))

	val, ok := c.Get(ctx, "menu")
	assert.True(t, ok)
	assert.Equal(t, []byte("pizza"), val)

	now = now.Add(59 * time.Minute)
	_, ok = c.Get(ctx, "menu")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	val, ok = c.Get(ctx, "menu")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestMemoryCache_NoTTLAndDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCache_ExpiredGetKeepsConcurrentSet(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var c *MemoryCache
	armed := false
	c = NewMemoryCache().WithClock(func() time.Time {
		if armed {
			// lands between Get's read and write locks
			armed = false
			require.NoError(t, c.Set(ctx, "menu", []byte("fresh"), time.Hour))
		}
		return now
	})

	require.NoError(t, c.Set(ctx, "menu", []byte("stale"), time.Minute))
	now = now.Add(2 * time.Minute)
	armed = true

	_, ok := c.Get(ctx, "menu")
	assert.False(t, ok)

	val, ok := c.Get(ctx, "menu")
	require.True(t, ok)
	assert.Equal(t, "fresh", string(val))
}

func TestMemoryCache_CopiesValue(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	buf := []byte("original")
	require.NoError(t, c.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'X'

	val, _ := c.Get(ctx, "k")
	assert.Equal(t, "original", string(val))
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
	t.Cleanup(func() { _ = c.Close() })

	_, ok := c.Get(ctx, "menu")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "menu", []byte("pizza"), time.Hour))
	val, ok := c.Get(ctx, "menu")
	assert.True(t, ok)
	assert.Equal(t, []byte("pizza"), val)
	assert.True(t, mr.Exists("test:menu"))

	mr.FastForward(time.Hour + time.Second)
	_, ok = c.Get(ctx, "menu")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	c, err := New(config.CacheConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	mr := miniredis.RunT(t)
	c, err = New(config.CacheConfig{Driver: "redis", RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &RedisCache{}, c)

	_, err = New(config.CacheConfig{Driver: "memcached"})
	assert.Error(t, err)
}
