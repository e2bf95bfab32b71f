package cache

import (
	"context"
	"time"
)

// LayeredCache puts a small process-local LRU in front of a shared store.
// Writes go to the remote first; L1 entries never outlive l1TTL.
type LayeredCache struct {
	l1     *MemoryCache
	remote Service
	l1TTL  time.Duration
}

// NewLayeredCache wraps remote with an L1 of l1Entries values kept for at most l1TTL.
func NewLayeredCache(remote Service, l1Entries int, l1TTL time.Duration) *LayeredCache {
	if l1TTL <= 0 {
		l1TTL = time.Minute
	}
	return &LayeredCache{l1: NewMemoryCache(l1Entries), remote: remote, l1TTL: l1TTL}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.remote.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	ttl := lc.l1TTL
	if expiration > 0 && expiration < ttl {
		ttl = expiration
	}
	_ = lc.l1.Set(ctx, key, value, ttl)
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if lc.l1.Get(ctx, key, dest) == nil {
		return nil
	}
	if err := lc.remote.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = lc.l1.Set(ctx, key, dest, lc.l1TTL)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.l1.Delete(ctx, keys...)
	return lc.remote.Delete(ctx, keys...)
}
