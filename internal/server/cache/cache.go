// Package cache provides an optional Redis-backed read-through cache for
// per-user record collections. A nil client disables caching entirely, so
// callers never have to branch on whether Redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds staleness between an external write and the next read.
const DefaultTTL = 60 * time.Second

// Cache wraps a redis client. The zero value (and a Cache built from a nil
// client) is a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a Cache over the given client. Passing nil yields a disabled
// cache whose methods all succeed without doing anything.
func New(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: DefaultTTL}
}

// CollectionKey builds the cache key for one user's collection of a kind.
func CollectionKey(userID, kind string) string {
	return fmt.Sprintf("records:%s:%s", userID, kind)
}

// Get loads the cached value for key into dest. The second return value is
// false on a miss, on a disabled cache, or when the entry cannot be decoded.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// A corrupt entry behaves like a miss; the caller refills it.
		return false, nil
	}
	return true, nil
}

// Set stores value under key with the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.SetEx(ctx, key, data, c.ttl).Err()
}

// Invalidate drops the entries for the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
