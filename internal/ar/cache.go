package ar

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const invoiceCachePrefix = "backoffice:invoice:"

// RedisCache caches fully loaded invoices in Redis. Concurrent misses for the
// same invoice share a single load.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewRedisCache instantiates the cache helper.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func invoiceKey(id int64) string {
	return invoiceCachePrefix + strconv.FormatInt(id, 10)
}

// Fetch returns the cached invoice or populates it using load. Redis failures
// degrade to a direct load.
func (c *RedisCache) Fetch(ctx context.Context, id int64, load func(context.Context) (*Invoice, error)) (*Invoice, error) {
	if c == nil || c.client == nil {
		return load(ctx)
	}
	key := invoiceKey(id)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var inv Invoice
		if err := json.Unmarshal(payload, &inv); err == nil {
			return &inv, nil
		}
		c.logger.Warn("discard corrupt invoice cache entry", slog.Int64("invoice_id", id))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("invoice cache read", slog.Int64("invoice_id", id), slog.Any("error", err))
		return load(ctx)
	}

	resultChan := c.group.DoChan(key, func() (any, error) {
		inv, err := load(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(inv)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("invoice cache write", slog.Int64("invoice_id", id), slog.Any("error", err))
		}
		return inv, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		inv := *res.Val.(*Invoice)
		return &inv, nil
	}
}

// Invalidate drops the cached copy of an invoice.
func (c *RedisCache) Invalidate(ctx context.Context, id int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, invoiceKey(id)).Err()
}
