package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"civreg/internal/record/models"
	"civreg/internal/registry/metrics"
	"civreg/internal/wizard/ports"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultCacheTTL keeps cached results short-lived; records created by
	// other clerks become visible after at most this long.
	DefaultCacheTTL = 30 * time.Second

	duplicateKeyPrefix = "civreg:dup:"
)

// CachedSearcher fronts a DuplicateSearcher with a Redis cache. Concurrent
// lookups for the same query share one upstream call.
type CachedSearcher struct {
	next    ports.DuplicateSearcher
	client  *redis.Client
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type CachedSearcherOption func(*CachedSearcher)

func WithCacheTTL(ttl time.Duration) CachedSearcherOption {
	return func(c *CachedSearcher) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCacheMetrics(m *metrics.Metrics) CachedSearcherOption {
	return func(c *CachedSearcher) { c.metrics = m }
}

func WithCacheLogger(logger *slog.Logger) CachedSearcherOption {
	return func(c *CachedSearcher) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCachedSearcher(next ports.DuplicateSearcher, client *redis.Client, opts ...CachedSearcherOption) *CachedSearcher {
	c := &CachedSearcher{
		next:   next,
		client: client,
		ttl:    DefaultCacheTTL,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// CacheKey is the Redis key for a query.
func CacheKey(q models.DuplicateQuery) string {
	key := duplicateKeyPrefix + q.Key()
	if !q.ExcludeID.IsNil() {
		key += "|" + q.ExcludeID.String()
	}
	return key
}

// SearchDuplicates serves from Redis when possible. Cache failures fall
// through to the wrapped searcher.
func (c *CachedSearcher) SearchDuplicates(ctx context.Context, q models.DuplicateQuery) (models.DuplicateResult, error) {
	start := time.Now()
	key := CacheKey(q)

	if res, ok := c.lookup(ctx, key); ok {
		c.metrics.RecordCacheHit("duplicates")
		c.metrics.ObserveSearch("cache", time.Since(start))
		return res, nil
	}
	c.metrics.RecordCacheMiss("duplicates")

	v, err, _ := c.group.Do(key, func() (any, error) {
		res, err := c.next.SearchDuplicates(ctx, q)
		if err != nil {
			return models.DuplicateResult{}, err
		}
		c.store(ctx, key, res)
		return res, nil
	})
	if err != nil {
		return models.DuplicateResult{}, err
	}
	c.metrics.ObserveSearch("store", time.Since(start))
	return v.(models.DuplicateResult), nil
}

// Invalidate drops every cached result. Called after a record is written so
// clerks see it immediately on this node.
func (c *CachedSearcher) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, duplicateKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan duplicate cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *CachedSearcher) lookup(ctx context.Context, key string) (models.DuplicateResult, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.DuplicateResult{}, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "duplicate cache read failed", "error", err)
		return models.DuplicateResult{}, false
	}
	var res models.DuplicateResult
	if err := json.Unmarshal(raw, &res); err != nil {
		c.logger.WarnContext(ctx, "duplicate cache entry corrupt", "key", key, "error", err)
		return models.DuplicateResult{}, false
	}
	return res, true
}

func (c *CachedSearcher) store(ctx context.Context, key string, res models.DuplicateResult) {
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "duplicate cache write failed", "error", err)
	}
}
