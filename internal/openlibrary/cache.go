package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultCacheTTL = 24 * time.Hour

	cacheKeyPrefix = "isbn:"
	cacheOpTimeout = 150 * time.Millisecond
)

type lookup interface {
	LookupByISBN(ctx context.Context, isbn string) (json.RawMessage, error)
}

// Cache is a read-through cache of found records in front of a lookup. Redis trouble never
// fails a lookup, the request just goes upstream. Misses and failures are not cached.
type Cache struct {
	next   lookup
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(next lookup, rdb *redis.Client, ttl time.Duration, l *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &Cache{next: next, rdb: rdb, ttl: ttl, logger: l}
}

func (c *Cache) LookupByISBN(ctx context.Context, isbn string) (json.RawMessage, error) {
	key := cacheKeyPrefix + isbn

	if record, ok := c.get(ctx, key); ok {
		return record, nil
	}

	record, err := c.next.LookupByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}

	c.set(ctx, key, record)

	return record, nil
}

func (c *Cache) get(ctx context.Context, key string) (json.RawMessage, bool) {
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	bs, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			cacheResults.WithLabelValues(cacheMiss).Inc()
		} else {
			cacheResults.WithLabelValues(cacheError).Inc()
			c.logger.WarnContext(ctx, "Reading ISBN cache failed: "+err.Error())
		}
		return nil, false
	}

	cacheResults.WithLabelValues(cacheHit).Inc()
	return bs, true
}

func (c *Cache) set(ctx context.Context, key string, record json.RawMessage) {
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	if err := c.rdb.Set(ctx, key, []byte(record), c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Writing ISBN cache failed: "+err.Error())
	}
}
