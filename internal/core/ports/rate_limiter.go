package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RateLimitRepository provides low-level atomic operations for rate limiting counters.
// It abstracts storage (e.g., Redis). Implementation should be concurrency-safe.
type RateLimitRepository interface {
	// IncrementWindow atomically increments the request counter for the user in the current window
	// and ensures the key expires after ttl. Returns the updated count and the window start time.
	IncrementWindow(ctx context.Context, userID uuid.UUID, window time.Duration, keyPrefix string, ttl time.Duration) (count int, windowStart time.Time, err error)
}

// RateLimiterService defines per-user inbound API rate limiting.
// Implementations MUST be safe for concurrent use.
type RateLimiterService interface {
	// Allow consumes one request unit for the user and reports whether it is permitted.
	Allow(ctx context.Context, userID uuid.UUID) (allowed bool, remaining int, limit int, reset time.Time, err error)
}

// OutboundLimiter gates calls to a rate-limited third-party API.
// Acquire blocks until both the window and concurrency limits admit the caller.
type OutboundLimiter interface {
	Acquire(ctx context.Context) error
	Release()
	// Do runs fn while holding a slot; the slot is always released.
	Do(ctx context.Context, fn func(context.Context) error) error
}
