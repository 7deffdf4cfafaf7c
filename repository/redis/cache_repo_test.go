package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/studio/repository"
)

func setupTestCache(t *testing.T) (*miniredis.Miniredis, repository.DocumentCache) {
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewDocumentCache(client, time.Minute)
}

func TestDocumentCache_SetGetInvalidate(t *testing.T) {
	mr, cache := setupTestCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "published:page:home")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "published:page:home", []byte(`{"id":"1"}`)))
	assert.True(t, mr.Exists("studio:published:page:home"))

	value, ok, err := cache.Get(ctx, "published:page:home")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"1"}`, string(value))

	require.NoError(t, cache.Invalidate(ctx, "published:page:home", "published:page:other"))
	_, ok, err = cache.Get(ctx, "published:page:home")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, cache.Invalidate(ctx))
}

func TestDocumentCache_Expires(t *testing.T) {
	mr, cache := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("v")))
	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
