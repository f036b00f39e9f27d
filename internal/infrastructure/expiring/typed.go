package expiring

import (
	"context"
	"fmt"
	"time"

	"github.com/avatarctic/newsletter-saas/internal/core/ports"
)

// GetAs returns the cached value under key when it is present and of type T.
func GetAs[T any](c ports.ExpiringCache, key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// GetOrSetAs is a typed GetOrSet. A nil cache calls producer directly.
func GetOrSetAs[T any](ctx context.Context, c ports.ExpiringCache, key string, ttl time.Duration, producer func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return producer(ctx)
	}
	var zero T
	v, err := c.GetOrSet(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return producer(ctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: unexpected type %T for key %q", v, key)
	}
	return t, nil
}
