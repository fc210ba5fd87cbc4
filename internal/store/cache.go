// internal/store/cache.go
package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"taf-intake/internal/common/logger"
	"taf-intake/internal/common/metrics"
	"taf-intake/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// ListCacheKey prefixes the JSON-encoded ListAll result. The full key
	// carries the current generation: tafs:list:<gen>.
	ListCacheKey = "tafs:list"
	// ListGenerationKey is bumped by every Append. A listing computed under
	// an older generation is written to a key no reader will look up again.
	ListGenerationKey = "tafs:list:gen"
)

func listKey(gen int64) string {
	return fmt.Sprintf("%s:%d", ListCacheKey, gen)
}

// CachedStore puts a Redis cache-aside in front of ListAll. Appends move the
// listing to a new generation. Redis failures are logged and the wrapped
// store answers.
type CachedStore struct {
	Store
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(inner Store, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{
		Store:  inner,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "listing-cache"}),
	}
}

func (c *CachedStore) Append(ctx context.Context, rec *models.CandidateRecord) (string, error) {
	id, err := c.Store.Append(ctx, rec)
	if err != nil {
		return "", err
	}

	gen, err := c.rdb.Incr(ctx, ListGenerationKey).Result()
	if err != nil {
		c.logger.Warn("failed to invalidate listing cache", map[string]interface{}{
			"error": err,
			"id":    id,
		})
		return id, nil
	}
	if err := c.rdb.Del(ctx, listKey(gen-1)).Err(); err != nil {
		c.logger.Warn("failed to drop previous listing", map[string]interface{}{
			"error":      err,
			"generation": gen - 1,
		})
	}
	return id, nil
}

// ListAll reads the generation before the wrapped store so that an Append
// landing in between leaves this result under a superseded key.
func (c *CachedStore) ListAll(ctx context.Context) ([]models.CandidateRecord, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		c.logger.Warn("listing cache unavailable", map[string]interface{}{"error": err})
		return c.Store.ListAll(ctx)
	}
	key := listKey(gen)

	if records, ok := c.cached(ctx, key); ok {
		return records, nil
	}

	records, err := c.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(records)
	if err != nil {
		c.logger.Warn("failed to encode listing for cache", map[string]interface{}{"error": err})
		return records, nil
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to populate listing cache", map[string]interface{}{"error": err})
	}
	return records, nil
}

func (c *CachedStore) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, ListGenerationKey).Int64()
	if stderrors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *CachedStore) cached(ctx context.Context, key string) ([]models.CandidateRecord, bool) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		c.logger.Warn("listing cache unavailable", map[string]interface{}{"error": err})
		return nil, false
	}

	var records []models.CandidateRecord
	if err := json.Unmarshal(data, &records); err != nil {
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		c.logger.Warn("discarding corrupt listing cache entry", map[string]interface{}{"error": err})
		return nil, false
	}
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return records, true
}
