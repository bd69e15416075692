package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/macrolens/menulens/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, "menulens:"), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "website:luigis", "https://luigis.example", time.Hour))

	got, err := c.Get(ctx, "website:luigis")
	require.NoError(t, err)
	assert.Equal(t, "https://luigis.example", got)

	// stored as JSON under the prefix
	raw, err := mr.Get("menulens:website:luigis")
	require.NoError(t, err)
	assert.Equal(t, `"https://luigis.example"`, raw)
	assert.Equal(t, time.Hour, mr.TTL("menulens:website:luigis"))
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := newTestRedis(t)

	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisCache_DeleteExists(t *testing.T) {
	c, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", map[string]string{"url": "https://x.example"}, 0))
	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"url": "https://x.example"}, got)

	require.NoError(t, c.Delete(ctx, "k"))
	exists, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisCache_Unavailable(t *testing.T) {
	c, mr := newTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), "k")
	assert.True(t, errors.Is(err, domain.ErrCacheUnavailable), "err = %v", err)
	assert.ErrorIs(t, c.Ping(context.Background()), domain.ErrCacheUnavailable)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("memory by default", func(t *testing.T) {
		store, err := New(ctx, Config{})
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &MemoryCache{}, store)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		store, err := New(ctx, Config{Type: TypeRedis, RedisURL: "redis://" + mr.Addr() + "/0", KeyPrefix: "t:"})
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &RedisCache{}, store)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, err := New(ctx, Config{Type: TypeRedis, RedisURL: "redis://" + addr})
		assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
	})

	t.Run("malformed redis url", func(t *testing.T) {
		_, err := New(ctx, Config{Type: TypeRedis, RedisURL: "http://not-redis"})
		assert.Error(t, err)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := New(ctx, Config{Type: "memcached"})
		assert.Error(t, err)
	})
}
