package brand

import (
	"context"
	"sync"
)

// Fetcher loads a watermark asset by object-store key.
type Fetcher func(ctx context.Context, key string) ([]byte, error)

// AssetCache is a keyed, lazily populated lookup table for watermark bytes.
// Entries are never invalidated: assets are immutable for the lifetime of the
// process. Two goroutines racing on a cold key may both fetch; the bytes are
// content-identical, so whichever insert lands first wins.
type AssetCache struct {
	fetch Fetcher

	mu      sync.Mutex
	entries map[string][]byte
}

func NewAssetCache(fetch Fetcher) *AssetCache {
	return &AssetCache{
		fetch:   fetch,
		entries: make(map[string][]byte),
	}
}

func (c *AssetCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	cached, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	data, err := c.fetch(ctx, key)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing, nil
	}
	c.entries[key] = data
	return data, nil
}
