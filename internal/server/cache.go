package server

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/fernwehlabs/discovery/pkg/config"
	pkgredis "github.com/fernwehlabs/discovery/pkg/redis"
)

const cacheKeyPrefix = "discovery:"

// ResultCache caches serialised search and recommendation responses in
// Redis. Concurrent misses for the same key are collapsed through
// singleflight so a popular query is computed once.
type ResultCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewResultCache creates a ResultCache over the given Redis client.
func NewResultCache(client *pkgredis.Client, cfg config.RedisConfig) *ResultCache {
	return &ResultCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "result-cache"),
	}
}

// GetOrCompute returns the cached response for key, computing and storing it
// on a miss. The boolean reports whether the response came from cache.
func (c *ResultCache) GetOrCompute(ctx context.Context, key string, computeFn func() ([]byte, error)) ([]byte, bool, error) {
	if data, ok := c.get(ctx, key); ok {
		return data, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		if data, ok := c.get(ctx, key); ok {
			return data, nil
		}
		data, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, data)
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]byte), false, nil
}

func (c *ResultCache) get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return []byte(data), true
}

func (c *ResultCache) set(ctx context.Context, key string, data []byte) {
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// Invalidate removes every cached response. Called after a snapshot rebuild
// so stale results never outlive the corpus they were computed from.
func (c *ResultCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, cacheKeyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating result cache: %w", err)
	}
	c.logger.Info("result cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns cumulative hit and miss counts.
func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// CacheKey derives a stable cache key from the request kind and its
// normalised parameters.
func CacheKey(kind string, params string) string {
	hash := sha256.Sum256([]byte(params))
	return fmt.Sprintf("%s%s:%x", cacheKeyPrefix, kind, hash[:16])
}
