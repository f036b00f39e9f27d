package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	tmocks "github.com/avatarctic/newsletter-saas/test/mocks"
)

func TestRateLimiterService_PrunesIdleLocalBuckets(t *testing.T) {
	repo := &tmocks.RateLimitRepositoryMock{IncrementWindowFn: func(ctx context.Context, userID uuid.UUID, window time.Duration, prefix string, ttl time.Duration) (int, time.Time, error) {
		return 0, time.Time{}, errors.New("redis down")
	}}
	svc := NewRateLimiterService(repo, &RateLimiterConfig{DefaultRequestsPerMinute: 2, BurstMultiplier: 1, Window: time.Minute}, nil)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	for i := 0; i < 100; i++ {
		_, _, _, _, _ = svc.Allow(context.Background(), uuid.New())
	}
	require.Len(t, svc.fallback, 100)

	active := uuid.New()
	ok, _, _, _, _ := svc.Allow(context.Background(), active)
	require.True(t, ok)
	ok, _, _, _, _ = svc.Allow(context.Background(), active)
	require.True(t, ok)
	ok, _, _, _, _ = svc.Allow(context.Background(), active)
	require.False(t, ok)

	clock = clock.Add(30 * time.Second)
	_, _, _, _, _ = svc.Allow(context.Background(), active)
	require.Len(t, svc.fallback, 101)

	clock = clock.Add(31 * time.Second)
	ok, remaining, _, _, _ := svc.Allow(context.Background(), active)
	require.Len(t, svc.fallback, 1)
	require.True(t, ok)
	require.Zero(t, remaining)
}
