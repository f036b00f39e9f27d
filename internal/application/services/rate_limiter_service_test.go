package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	impl "github.com/avatarctic/newsletter-saas/internal/application/services"
	tmocks "github.com/avatarctic/newsletter-saas/test/mocks"
)

func TestRateLimiterService_WindowCount(t *testing.T) {
	count := 0
	repo := &tmocks.RateLimitRepositoryMock{IncrementWindowFn: func(ctx context.Context, userID uuid.UUID, window time.Duration, prefix string, ttl time.Duration) (int, time.Time, error) {
		require.Equal(t, "rl", prefix)
		require.Equal(t, 2*window, ttl)
		count++
		return count, time.Now().Truncate(window), nil
	}}
	svc := impl.NewRateLimiterService(repo, &impl.RateLimiterConfig{DefaultRequestsPerMinute: 2, BurstMultiplier: 1, Window: time.Minute, KeyPrefix: "rl"}, nil)
	uid := uuid.New()

	ok, remaining, limit, _, err := svc.Allow(context.Background(), uid)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, remaining)
	require.Equal(t, 2, limit)

	ok, _, _, _, _ = svc.Allow(context.Background(), uid)
	require.True(t, ok)
	ok, remaining, _, _, _ = svc.Allow(context.Background(), uid)
	require.False(t, ok)
	require.Zero(t, remaining)
}

func TestRateLimiterService_FallsBackWhenStoreFails(t *testing.T) {
	repo := &tmocks.RateLimitRepositoryMock{IncrementWindowFn: func(ctx context.Context, userID uuid.UUID, window time.Duration, prefix string, ttl time.Duration) (int, time.Time, error) {
		return 0, time.Time{}, errors.New("redis down")
	}}
	svc := impl.NewRateLimiterService(repo, &impl.RateLimiterConfig{DefaultRequestsPerMinute: 1, BurstMultiplier: 1, Window: time.Hour}, nil)
	uid := uuid.New()

	ok, _, _, _, err := svc.Allow(context.Background(), uid)
	require.Error(t, err)
	require.True(t, ok)
	ok, _, _, _, _ = svc.Allow(context.Background(), uid)
	require.False(t, ok)

	// buckets are per user
	ok, _, _, _, _ = svc.Allow(context.Background(), uuid.New())
	require.True(t, ok)
}
