package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/studio/repository"
)

type documentCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewDocumentCache creates a Redis-backed read cache. Entries expire after ttl.
func NewDocumentCache(client *redislib.Client, ttl time.Duration) repository.DocumentCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &documentCache{
		client: client,
		prefix: "studio:",
		ttl:    ttl,
	}
}

func (c *documentCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return result, true, nil
}

func (c *documentCache) Set(ctx context.Context, key string, value []byte) error {
	return c.client.Set(ctx, c.key(key), value, c.ttl).Err()
}

func (c *documentCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = c.key(key)
	}
	return c.client.Del(ctx, full...).Err()
}

func (c *documentCache) key(id string) string {
	return fmt.Sprintf("%s%s", c.prefix, id)
}
