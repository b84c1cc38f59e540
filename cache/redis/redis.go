// Package redis provides a Redis-backed response Cache for smartrouter.
//
// Responses are stored as JSON strings with a per-entry TTL enforced by
// Redis itself. This makes cached completions shareable across router
// instances.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/smartllm/smartrouter"
)

// Cache is a Redis-backed smartrouter.Cache.
type Cache struct {
	client    goredis.Cmdable
	keyPrefix string
}

var _ smartrouter.Cache = (*Cache)(nil)

// Option configures Cache.
type Option func(*Cache)

// WithKeyPrefix sets the Redis key prefix (default "smartrouter:cache:").
func WithKeyPrefix(prefix string) Option {
	return func(c *Cache) { c.keyPrefix = prefix }
}

// New creates a new Redis-backed Cache.
// The client must be a connected *goredis.Client or *goredis.ClusterClient.
func New(client goredis.Cmdable, opts ...Option) *Cache {
	c := &Cache{
		client:    client,
		keyPrefix: "smartrouter:cache:",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) entryKey(key string) string {
	return c.keyPrefix + key
}

// Lookup fetches a cached response. A missing or expired key is a miss, not
// an error.
func (c *Cache) Lookup(ctx context.Context, key string) (smartrouter.Response, bool, error) {
	data, err := c.client.Get(ctx, c.entryKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return smartrouter.Response{}, false, nil
	}
	if err != nil {
		return smartrouter.Response{}, false, fmt.Errorf("smartrouter/redis: lookup: %w", err)
	}

	var resp smartrouter.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return smartrouter.Response{}, false, fmt.Errorf("smartrouter/redis: decode entry: %w", err)
	}
	return resp, true, nil
}

// Store writes a response with the given TTL. A non-positive TTL stores
// nothing.
func (c *Cache) Store(ctx context.Context, key string, resp smartrouter.Response, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("smartrouter/redis: encode entry: %w", err)
	}
	if err := c.client.Set(ctx, c.entryKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("smartrouter/redis: store: %w", err)
	}
	return nil
}

// Purge reports 0. Redis reclaims expired keys on its own.
func (c *Cache) Purge(context.Context) (int, error) {
	return 0, nil
}

// Close is a no-op. The client lifecycle belongs to the caller.
func (c *Cache) Close() error { return nil }
