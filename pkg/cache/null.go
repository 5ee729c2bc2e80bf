package cache

import (
	"context"
	"time"
)

// NullCache discards everything and misses on every lookup. It backs
// --no-cache runs and tests that must observe every HTTP request.
type NullCache struct{}

// NewNullCache returns the no-op backend.
func NewNullCache() Cache {
	return &NullCache{}
}

func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

func (c *NullCache) Close() error {
	return nil
}

var _ Cache = (*NullCache)(nil)
