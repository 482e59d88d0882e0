package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReportCache wraps Redis-based caching for generated report payloads.
// Reports are derived aggregates: a cached copy is only an optimisation and
// every miss recomputes from the ledger.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache instantiates the cache helper. A nil client disables
// caching; Fetch then always calls the loader.
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

// Key composes a cache key from report name and scope parts.
func Key(parts ...string) string {
	return "report:" + strings.Join(parts, ":")
}

// Fetch loads a cached report into dest, or populates the cache from the
// loader. Cache infrastructure failures fall through to the loader; a slow
// report beats a failed one.
func (c *ReportCache) Fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		return c.load(ctx, key, dest, loader, false)
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(raw, dest)
	}
	if !errors.Is(err, redis.Nil) {
		// fall through and recompute
		return c.load(ctx, key, dest, loader, false)
	}
	return c.load(ctx, key, dest, loader, true)
}

// Invalidate drops every cached report.
func (c *ReportCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, "report:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *ReportCache) load(ctx context.Context, key string, dest any, loader func(context.Context) (any, error), store bool) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if store && c != nil && c.client != nil {
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	}
	return json.Unmarshal(raw, dest)
}
