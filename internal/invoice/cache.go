package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores rendered invoice PDFs in redis. The key embeds the
// order's updated_at stamp, so stale entries simply stop being read
// and age out with the TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(orderID int64, updatedAt time.Time) string {
	return fmt.Sprintf("invoice:pdf:%d:%d", orderID, updatedAt.UnixNano())
}

// Get returns the cached PDF, or nil when absent.
func (c *Cache) Get(ctx context.Context, orderID int64, updatedAt time.Time) ([]byte, error) {
	pdf, err := c.client.Get(ctx, cacheKey(orderID, updatedAt)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

// Set stores the rendered PDF.
func (c *Cache) Set(ctx context.Context, orderID int64, updatedAt time.Time, pdf []byte) error {
	return c.client.Set(ctx, cacheKey(orderID, updatedAt), pdf, c.ttl).Err()
}
