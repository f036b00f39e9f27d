package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/newsletter"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/db"
)

const newsletterColumns = `id, user_id, subject, preview_text, content, status, scheduled_at, sent_at, recipient_count, created_at, updated_at`

// NewsletterRepository implements the newsletter repository interface
type NewsletterRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

func NewNewsletterRepository(database *db.Database, logger *logrus.Logger) ports.NewsletterRepository {
	return &NewsletterRepository{db: database, logger: logger}
}

func (r *NewsletterRepository) Create(ctx context.Context, n *newsletter.Newsletter) error {
	query := `
		INSERT INTO newsletters (id, user_id, subject, preview_text, content, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`
	err := r.db.DB.QueryRowxContext(ctx, query,
		n.ID, n.UserID, n.Subject, n.PreviewText, n.Content, n.Status, n.ScheduledAt,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	return wrapErr("create newsletter", err)
}

func (r *NewsletterRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*newsletter.Newsletter, error) {
	var n newsletter.Newsletter
	query := `SELECT ` + newsletterColumns + ` FROM newsletters WHERE user_id = $1 AND id = $2`
	if err := r.db.DB.GetContext(ctx, &n, query, userID, id); err != nil {
		return nil, wrapErr("get newsletter", err)
	}
	return &n, nil
}

func (r *NewsletterRepository) Update(ctx context.Context, n *newsletter.Newsletter) error {
	query := `
		UPDATE newsletters
		SET subject = :subject, preview_text = :preview_text, content = :content, status = :status,
		    scheduled_at = :scheduled_at, sent_at = :sent_at, recipient_count = :recipient_count,
		    updated_at = NOW()
		WHERE user_id = :user_id AND id = :id`
	res, err := r.db.DB.NamedExecContext(ctx, query, n)
	if err != nil {
		return wrapErr("update newsletter", err)
	}
	return requireAffected("update newsletter", res)
}

func (r *NewsletterRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.DB.ExecContext(ctx, `DELETE FROM newsletters WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return wrapErr("delete newsletter", err)
	}
	return requireAffected("delete newsletter", res)
}

// List returns newsletters newest first; an empty status lists all.
func (r *NewsletterRepository) List(ctx context.Context, userID uuid.UUID, status newsletter.Status, limit, offset int) ([]*newsletter.Newsletter, error) {
	query := `
		SELECT ` + newsletterColumns + `
		FROM newsletters
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
	var out []*newsletter.Newsletter
	if err := r.db.DB.SelectContext(ctx, &out, query, userID, string(status), limit, offset); err != nil {
		return nil, wrapErr("list newsletters", err)
	}
	return out, nil
}

func (r *NewsletterRepository) Count(ctx context.Context, userID uuid.UUID, status newsletter.Status) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM newsletters WHERE user_id = $1 AND ($2 = '' OR status = $2)`
	if err := r.db.DB.GetContext(ctx, &n, query, userID, string(status)); err != nil {
		return 0, wrapErr("count newsletters", err)
	}
	return n, nil
}

func (r *NewsletterRepository) Stats(ctx context.Context, userID uuid.UUID) (*newsletter.Stats, error) {
	query := `
		SELECT
			COUNT(*)                                        AS total,
			COUNT(*) FILTER (WHERE n.status = 'draft')      AS drafts,
			COUNT(*) FILTER (WHERE n.status = 'scheduled')  AS scheduled,
			COUNT(*) FILTER (WHERE n.status = 'sent')       AS sent,
			COALESCE(SUM(n.recipient_count), 0)             AS recipients,
			COALESCE(SUM(e.opens), 0)                       AS opens,
			COALESCE(SUM(e.clicks), 0)                      AS clicks
		FROM newsletters n
		LEFT JOIN (
			SELECT newsletter_id,
			       COUNT(DISTINCT subscriber_id) FILTER (WHERE type = 'open')  AS opens,
			       COUNT(DISTINCT subscriber_id) FILTER (WHERE type = 'click') AS clicks
			FROM analytics_events
			GROUP BY newsletter_id
		) e ON e.newsletter_id = n.id
		WHERE n.user_id = $1`
	var st newsletter.Stats
	if err := r.db.DB.GetContext(ctx, &st, query, userID); err != nil {
		return nil, wrapErr("aggregate newsletter stats", err)
	}
	st.ComputeRates()
	return &st, nil
}

func (r *NewsletterRepository) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var owner uuid.UUID
	if err := r.db.DB.GetContext(ctx, &owner, `SELECT user_id FROM newsletters WHERE id = $1`, id); err != nil {
		return uuid.Nil, wrapErr("resolve newsletter owner", err)
	}
	return owner, nil
}
