package di

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestCache(t *testing.T) (*InMemoryCache, *time.Time) {
	t.Helper()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewInMemoryCache()
	t.Cleanup(cache.Stop)
	cache.mu.Lock()
	cache.now = func() time.Time { return now }
	cache.mu.Unlock()
	return cache, &now
}

func TestInMemoryCache_GetSet(t *testing.T) {
	cache, _ := createTestCache(t)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "missing")
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "outline@1", "value", 30))
	got, ok := cache.Get(ctx, "outline@1")
	require.True(t, ok)
	assert.Equal(t, "value", got)

	require.NoError(t, cache.Delete(ctx, "outline@1"))
	_, ok = cache.Get(ctx, "outline@1")
	assert.False(t, ok)
}

func TestInMemoryCache_Expiry(t *testing.T) {
	cache, now := createTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", 1, 10))
	require.NoError(t, cache.Set(ctx, "b", 2, 60))

	*now = now.Add(30 * time.Second)
	_, ok := cache.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "b")
	assert.True(t, ok)

	assert.Equal(t, 2, cache.Len())
	cache.sweep()
	assert.Equal(t, 1, cache.Len())
}

func TestInMemoryCache_Clear(t *testing.T) {
	cache, _ := createTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", 1, 10))
	require.NoError(t, cache.Set(ctx, "b", 2, 10))
	require.NoError(t, cache.Clear(ctx))
	assert.Zero(t, cache.Len())
}

func TestInMemoryCache_StopIsIdempotent(t *testing.T) {
	cache := NewInMemoryCache()
	cache.Stop()
	assert.NotPanics(t, cache.Stop)
}
