package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/analytics"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/db"
)

// AnalyticsRepository runs the aggregation queries behind growth and engagement.
type AnalyticsRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

func NewAnalyticsRepository(database *db.Database, logger *logrus.Logger) ports.AnalyticsRepository {
	return &AnalyticsRepository{db: database, logger: logger}
}

func (r *AnalyticsRepository) Growth(ctx context.Context, userID uuid.UUID, since time.Time) ([]analytics.GrowthPoint, error) {
	query := `
		SELECT date_trunc('day', created_at) AS day,
		       COUNT(*) FILTER (WHERE status = 'subscribed')   AS subscribed,
		       COUNT(*) FILTER (WHERE status = 'unsubscribed') AS unsubscribed
		FROM subscribers
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY day
		ORDER BY day`
	var points []analytics.GrowthPoint
	if err := r.db.DB.SelectContext(ctx, &points, query, userID, since); err != nil {
		return nil, wrapErr("aggregate subscriber growth", err)
	}
	return points, nil
}

func (r *AnalyticsRepository) SubscribedBefore(ctx context.Context, userID uuid.UUID, t time.Time) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM subscribers WHERE user_id = $1 AND created_at < $2 AND status = 'subscribed'`
	if err := r.db.DB.GetContext(ctx, &n, query, userID, t); err != nil {
		return 0, wrapErr("count subscribers before period", err)
	}
	return n, nil
}

func (r *AnalyticsRepository) Engagement(ctx context.Context, userID uuid.UUID) (*analytics.Engagement, error) {
	query := `
		SELECT
			COUNT(*)                            AS newsletters_sent,
			COALESCE(SUM(n.recipient_count), 0) AS recipients,
			COALESCE(SUM(e.opens), 0)           AS opens,
			COALESCE(SUM(e.clicks), 0)          AS clicks
		FROM newsletters n
		LEFT JOIN (
			SELECT newsletter_id,
			       COUNT(DISTINCT subscriber_id) FILTER (WHERE type = 'open')  AS opens,
			       COUNT(DISTINCT subscriber_id) FILTER (WHERE type = 'click') AS clicks
			FROM analytics_events
			GROUP BY newsletter_id
		) e ON e.newsletter_id = n.id
		WHERE n.user_id = $1 AND n.status = 'sent'`
	var eng analytics.Engagement
	if err := r.db.DB.GetContext(ctx, &eng, query, userID); err != nil {
		return nil, wrapErr("aggregate engagement", err)
	}
	return &eng, nil
}

func (r *AnalyticsRepository) RecordEvent(ctx context.Context, e *analytics.Event) error {
	query := `
		INSERT INTO analytics_events (id, newsletter_id, subscriber_id, type, url)
		VALUES (:id, :newsletter_id, :subscriber_id, :type, :url)`
	_, err := r.db.DB.NamedExecContext(ctx, query, e)
	return wrapErr("record analytics event", err)
}
