package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/analytics"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/cachekeys"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/expiring"
)

type AnalyticsService struct {
	repo        ports.AnalyticsRepository
	newsletters ports.NewsletterRepository
	cache       ports.ExpiringCache
	ttl         time.Duration
	logger      *logrus.Logger
	now         func() time.Time
}

func NewAnalyticsService(repo ports.AnalyticsRepository, newsletters ports.NewsletterRepository, cache ports.ExpiringCache, ttl time.Duration, logger *logrus.Logger) ports.AnalyticsService {
	return &AnalyticsService{
		repo:        repo,
		newsletters: newsletters,
		cache:       cache,
		ttl:         ttl,
		logger:      logger,
		now:         time.Now,
	}
}

// GetGrowth returns one point per day of the period with a running subscribed total.
func (s *AnalyticsService) GetGrowth(ctx context.Context, userID uuid.UUID, period analytics.Period) (*analytics.Growth, error) {
	days, ok := period.Days()
	if !ok {
		return nil, fmt.Errorf("%w: unknown period %q", ports.ErrInvalidInput, period)
	}
	return expiring.GetOrSetAs(ctx, s.cache, cachekeys.AnalyticsGrowth(userID, period), s.ttl, func(ctx context.Context) (*analytics.Growth, error) {
		return s.growth(ctx, userID, period, days)
	})
}

func (s *AnalyticsService) growth(ctx context.Context, userID uuid.UUID, period analytics.Period, days int) (*analytics.Growth, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	rows, err := s.repo.Growth(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load growth: %w", err)
	}
	total, err := s.repo.SubscribedBefore(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load growth baseline: %w", err)
	}

	byDay := make(map[string]analytics.GrowthPoint, len(rows))
	for _, r := range rows {
		byDay[r.Date.UTC().Format(time.DateOnly)] = r
	}
	points := make([]analytics.GrowthPoint, 0, days)
	for d := since; !d.After(today); d = d.AddDate(0, 0, 1) {
		p := byDay[d.Format(time.DateOnly)]
		p.Date = d
		total += p.Subscribed
		p.Total = total
		points = append(points, p)
	}
	return &analytics.Growth{Period: period, Points: points}, nil
}

func (s *AnalyticsService) GetEngagement(ctx context.Context, userID uuid.UUID) (*analytics.Engagement, error) {
	return expiring.GetOrSetAs(ctx, s.cache, cachekeys.AnalyticsEngagement(userID), s.ttl, func(ctx context.Context) (*analytics.Engagement, error) {
		e, err := s.repo.Engagement(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load engagement: %w", err)
		}
		if e.Recipients > 0 {
			e.OpenRate = float64(e.Opens) / float64(e.Recipients)
			e.ClickRate = float64(e.Clicks) / float64(e.Recipients)
		}
		return e, nil
	})
}

func (s *AnalyticsService) RecordOpen(ctx context.Context, newsletterID, subscriberID uuid.UUID) error {
	return s.record(ctx, &analytics.Event{NewsletterID: newsletterID, SubscriberID: subscriberID, Type: analytics.EventOpen})
}

func (s *AnalyticsService) RecordClick(ctx context.Context, newsletterID, subscriberID uuid.UUID, url string) error {
	return s.record(ctx, &analytics.Event{NewsletterID: newsletterID, SubscriberID: subscriberID, Type: analytics.EventClick, URL: url})
}

func (s *AnalyticsService) record(ctx context.Context, e *analytics.Event) error {
	owner, err := s.newsletters.OwnerOf(ctx, e.NewsletterID)
	if err != nil {
		return err
	}
	e.ID = uuid.New()
	e.CreatedAt = s.now()
	if err := s.repo.RecordEvent(ctx, e); err != nil {
		return fmt.Errorf("failed to record %s: %w", e.Type, err)
	}
	invalidate(s.cache, s.logger, cachekeys.TrackingEvent(owner))
	return nil
}
