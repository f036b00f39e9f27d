package ports

import (
	"context"
	"time"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/analytics"
	"github.com/google/uuid"
)

type AnalyticsRepository interface {
	// Growth returns one point per day with activity since the given instant.
	Growth(ctx context.Context, userID uuid.UUID, since time.Time) ([]analytics.GrowthPoint, error)
	// SubscribedBefore counts subscribers that joined before t and are still subscribed.
	SubscribedBefore(ctx context.Context, userID uuid.UUID, t time.Time) (int, error)
	Engagement(ctx context.Context, userID uuid.UUID) (*analytics.Engagement, error)
	RecordEvent(ctx context.Context, e *analytics.Event) error
}

type AnalyticsService interface {
	GetGrowth(ctx context.Context, userID uuid.UUID, period analytics.Period) (*analytics.Growth, error)
	GetEngagement(ctx context.Context, userID uuid.UUID) (*analytics.Engagement, error)
	RecordOpen(ctx context.Context, newsletterID, subscriberID uuid.UUID) error
	RecordClick(ctx context.Context, newsletterID, subscriberID uuid.UUID, url string) error
}
