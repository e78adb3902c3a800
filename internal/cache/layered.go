package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache checks its tiers in order (memory, disk, then optionally Redis)
// and copies hits into the faster tiers above them
type LayeredCache struct {
	tiers []Cache
}

// NewLayeredCache creates a memory + disk cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return NewTieredCache(
		NewMemoryCache(memoryTTL, 10*time.Minute),
		NewDiskCache(diskDir, diskTTL),
	)
}

// NewTieredCache layers arbitrary caches, fastest first
func NewTieredCache(tiers ...Cache) *LayeredCache {
	return &LayeredCache{tiers: tiers}
}

// WithTier appends a slower tier below the existing ones
func (c *LayeredCache) WithTier(tier Cache) *LayeredCache {
	c.tiers = append(c.tiers, tier)
	return c
}

func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	for i, tier := range c.tiers {
		val, found := tier.Get(ctx, key)
		if !found {
			continue
		}
		for _, upper := range c.tiers[:i] {
			_ = upper.Set(ctx, key, val, 0)
		}
		return val, true
	}
	return nil, false
}

// Set writes every tier and reports all failures
func (c *LayeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var errs []error
	for _, tier := range c.tiers {
		errs = append(errs, tier.Set(ctx, key, value, ttl))
	}
	return errors.Join(errs...)
}

func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	var errs []error
	for _, tier := range c.tiers {
		errs = append(errs, tier.Delete(ctx, key))
	}
	return errors.Join(errs...)
}

func (c *LayeredCache) Clear(ctx context.Context) error {
	var errs []error
	for _, tier := range c.tiers {
		errs = append(errs, tier.Clear(ctx))
	}
	return errors.Join(errs...)
}
