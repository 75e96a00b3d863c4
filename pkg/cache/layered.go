package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache implements two-level cache (L1: Memory, L2: Redis).
type LayeredCache struct {
	memCache   *MemoryCache
	redisCache Service
	memTTL     time.Duration
}

// NewLayeredCache creates a layered cache in front of l2.
func NewLayeredCache(l2 Service, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
		MemoryTTL:     30 * time.Second,
		Now:           time.Now,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &LayeredCache{
		memCache:   NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize), WithMemoryClock(cfg.Now)),
		redisCache: l2,
		memTTL:     cfg.MemoryTTL,
	}
}

func (lc *LayeredCache) l1TTL(expiration time.Duration) time.Duration {
	if expiration <= 0 || expiration > lc.memTTL {
		return lc.memTTL
	}
	return expiration
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	// Write-through: Redis first, then memory
	if err := lc.redisCache.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	return lc.memCache.Set(ctx, key, value, lc.l1TTL(expiration))
}

func (lc *LayeredCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, err := lc.memCache.Get(ctx, key); err == nil {
		return v, nil
	}

	v, err := lc.redisCache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	_ = lc.memCache.Set(ctx, key, v, lc.memTTL)
	return v, nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.memCache.Delete(ctx, keys...)
	return lc.redisCache.Delete(ctx, keys...)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	return errors.Join(lc.memCache.Close(), lc.redisCache.Close())
}

// L2 returns the shared layer.
func (lc *LayeredCache) L2() Service { return lc.redisCache }
