package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheRoundTrip(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()
	updatedAt := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

	got, err := cache.Get(ctx, 1, updatedAt)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, cache.Set(ctx, 1, updatedAt, []byte("%PDF-1.7 demo")))

	got, err = cache.Get(ctx, 1, updatedAt)
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF-1.7 demo"), got)
}

func TestCacheKeyedByUpdatedAt(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()
	updatedAt := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

	require.NoError(t, cache.Set(ctx, 1, updatedAt, []byte("stale")))

	// A later edit changes updated_at; the old entry is not served.
	got, err := cache.Get(ctx, 1, updatedAt.Add(time.Second))
	require.NoError(t, err)
	require.Nil(t, got)
}
