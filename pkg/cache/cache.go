// Package cache provides pluggable byte caches for HTTP response caching.
//
// The release index and checksum files change rarely, so callers cache raw
// response bodies between invocations. Three backends exist:
//   - [FileCache]: directory of hashed entry files, for CLI usage
//   - [RedisCache]: shared cache for long-running serve deployments
//   - [NullCache]: no-op, for tests and --no-cache
//
// Entries carry a TTL supplied at Set time. Keys are free-form strings;
// backends hash them, so callers may embed URLs and namespaces directly.
package cache

import (
	"context"
	"time"
)

// Cache stores raw byte values under string keys with per-entry TTL.
//
// Implementations must be safe for concurrent use. Get reports a miss with
// ok=false and a nil error; errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
