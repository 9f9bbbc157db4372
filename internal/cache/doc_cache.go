// Package cache provides an optional redis-backed read-through cache for
// the per-entity point reads the batch executor performs. A run over tens
// of thousands of rows re-reads the same collections; caching the existing
// documents keeps repeat runs off the store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orderlink/importer/internal/config"
	"github.com/orderlink/importer/internal/docstore"
)

const defaultTTL = 5 * time.Minute

// DocCache caches existing documents by collection and key. Implementations
// must be safe to call with a nil hit (miss) and must never fail an import:
// callers treat errors as misses.
type DocCache interface {
	Get(ctx context.Context, collection, key string) (docstore.Doc, bool, error)
	Set(ctx context.Context, collection, key string, doc docstore.Doc) error
	Invalidate(ctx context.Context, collection string, keys ...string) error
}

// New returns a redis-backed cache, or a noop when caching is disabled.
func New(cfg config.CacheConfig) (DocCache, error) {
	if !cfg.Enabled {
		return NewNoop(), nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &redisDocCache{client: client, ttl: ttl}, nil
}

// NewNoop returns a cache that never hits.
func NewNoop() DocCache { return noopDocCache{} }

type redisDocCache struct {
	client *redis.Client
	ttl    time.Duration
}

func cacheKey(collection, key string) string {
	return fmt.Sprintf("doc:%s:%s", collection, key)
}

func (c *redisDocCache) Get(ctx context.Context, collection, key string) (docstore.Doc, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(collection, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var doc docstore.Doc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return doc, true, nil
}

func (c *redisDocCache) Set(ctx context.Context, collection, key string, doc docstore.Doc) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(collection, key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *redisDocCache) Invalidate(ctx context.Context, collection string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = cacheKey(collection, k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

type noopDocCache struct{}

func (noopDocCache) Get(context.Context, string, string) (docstore.Doc, bool, error) {
	return nil, false, nil
}
func (noopDocCache) Set(context.Context, string, string, docstore.Doc) error { return nil }
func (noopDocCache) Invalidate(context.Context, string, ...string) error     { return nil }
