// Package cache provides the optional Redis response cache for the
// read-only API endpoints. A nil *ResponseCache is a valid no-op, so
// callers never branch on whether caching is enabled.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache stores rendered JSON responses keyed by a hash of the
// request shape.
type ResponseCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// New connects to Redis and verifies the connection. The returned cache
// is ready for use; a connection failure is reported rather than
// degrading silently so the operator can decide to run without it.
func New(redisURL string, ttl time.Duration) (*ResponseCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &ResponseCache{redis: client, ttl: ttl}, nil
}

// Get returns the cached response body for the key, if any.
func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	val, err := c.redis.Get(ctx, c.hashKey(key)).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set stores a rendered response body under the key.
func (c *ResponseCache) Set(ctx context.Context, key string, body []byte) {
	if c == nil {
		return
	}
	c.redis.Set(ctx, c.hashKey(key), body, c.ttl)
}

// InvalidateAll drops every cached response. Called after a data
// reload so stale scores never outlive their snapshot.
func (c *ResponseCache) InvalidateAll(ctx context.Context) error {
	if c == nil {
		return nil
	}
	keys, err := c.redis.Keys(ctx, "resp:*").Result()
	if err != nil {
		return fmt.Errorf("failed to list cached responses: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...).Err()
}

// Close closes the Redis connection.
func (c *ResponseCache) Close() error {
	if c == nil {
		return nil
	}
	return c.redis.Close()
}

func (c *ResponseCache) hashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("resp:%x", hash[:16])
}
