package cacheapi

import (
	"context"
	"errors"
)

var (
	ErrCacheKeyNotExist = errors.New("cache key not exist")
)

type ICacheGetter[K comparable, V any] interface {
	Get(ctx context.Context, k K) (V, error)
}

type ICacheSetter[K comparable, V any] interface {
	Set(ctx context.Context, k K, v V) error
}

type ICacheDeleter[K comparable] interface {
	Del(ctx context.Context, k K) error
}

type ICache[K comparable, V any] interface {
	ICacheGetter[K, V]
	ICacheSetter[K, V]
	ICacheDeleter[K]
}

type LoadCacheCallbackFunc[K comparable, V any] func(ctx context.Context, k K) (V, bool, error)

// Load reads k through the cache, falling back to cb on a miss and filling
// the cache when cb reports the value exists.
func Load[K comparable, V any](ctx context.Context, c ICache[K, V], k K, cb LoadCacheCallbackFunc[K, V]) (V, bool, error) {
	v, err := c.Get(ctx, k)
	if err == nil {
		return v, true, nil
	}
	var defaultV V
	if !errors.Is(err, ErrCacheKeyNotExist) {
		return defaultV, false, err
	}
	v, ok, err := cb(ctx, k)
	if err != nil {
		return defaultV, false, err
	}
	if !ok {
		return defaultV, false, nil
	}
	_ = c.Set(ctx, k, v)
	return v, true, nil
}
