// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis

import (
	stdctx "context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/dashi/internal/platform/metrics"
)

const keyPrefix = "dashi:"

// Cache is a read-through byte cache. Concurrent misses on one key share a single load.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewCache constructs a [Cache]. A nil client disables storage but keeps load coalescing.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

/*
GetOrLoad returns the cached value for key or stores the result of load.

Description: Redis failures degrade to calling load; they are logged and never
returned. Errors from load are returned and nothing is cached.
*/
func (cache *Cache) GetOrLoad(context stdctx.Context, key string, load func(stdctx.Context) ([]byte, error)) ([]byte, error) {
	key = keyPrefix + key

	if value, ok := cache.get(context, key); ok {
		metrics.ContentCacheLookups.WithLabelValues("hit").Inc()
		return value, nil
	}
	metrics.ContentCacheLookups.WithLabelValues("miss").Inc()

	result, err, _ := cache.group.Do(key, func() (any, error) {
		value, err := load(context)
		if err != nil {
			return nil, err
		}
		cache.set(context, key, value)
		return value, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

func (cache *Cache) get(context stdctx.Context, key string) ([]byte, bool) {
	if cache.client == nil {
		return nil, false
	}

	value, err := cache.client.Get(context, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cache.logger.Warn("cache_get_failed", slog.String("key", key), slog.Any("error", err))
		}
		return nil, false
	}

	return value, true
}

func (cache *Cache) set(context stdctx.Context, key string, value []byte) {
	if cache.client == nil {
		return
	}

	if err := cache.client.Set(context, key, value, cache.ttl).Err(); err != nil {
		cache.logger.Warn("cache_set_failed", slog.String("key", key), slog.Any("error", err))
	}
}
