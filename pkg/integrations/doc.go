// Package integrations provides HTTP clients for upstream release sources.
//
// # Overview
//
// This package contains the low-level HTTP plumbing shared by upstream
// clients. The only upstream today is the Ruby release index:
//
//   - [rubycache]: the cache.ruby-lang.org release index and checksum files
//
// # Client Pattern
//
// Upstream clients embed [Client] and follow a consistent pattern:
//
//	client := rubycache.NewClient(backend, 24*time.Hour)  // Cache TTL
//	rows, err := client.FetchIndex(ctx, false)            // false = use cache
//
// Clients handle:
//   - HTTP requests with retry on transient failures
//   - Response caching through a pkg/cache backend
//   - Status mapping (404 → ErrNotFound, 5xx → retryable ErrNetwork)
//
// All clients are safe for concurrent use by multiple goroutines.
package integrations
