package ports

import (
	"context"
	"time"
)

// KeyMatcher selects cache keys for bulk invalidation.
type KeyMatcher interface {
	Match(key string) bool
}

// CacheStats is a point-in-time view of an ExpiringCache.
type CacheStats struct {
	TotalEntries   int    `json:"total_entries"`
	ActiveEntries  int    `json:"active_entries"`
	ExpiredEntries int    `json:"expired_entries"`
	MemoryUsage    uint64 `json:"memory_usage"`
}

// ExpiringCache is the process-wide in-memory key-value store with per-entry TTL.
// A miss is reported as ok=false, never as an error.
type ExpiringCache interface {
	Get(key string) (any, bool)
	// Set stores value for ttl; ttl <= 0 uses the cache default.
	Set(key string, value any, ttl time.Duration)
	Delete(key string) bool
	// DeletePattern compiles pattern as a regular expression and removes every matching key.
	DeletePattern(pattern string) (int, error)
	DeleteMatching(m KeyMatcher) int
	// GetOrSet returns the cached value or stores and returns the producer's result.
	// A failed producer caches nothing.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, producer func(context.Context) (any, error)) (any, error)
	Has(key string) bool
	Clear()
	Stats() CacheStats
}
