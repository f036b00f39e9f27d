package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/subscriber"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/db"
)

const subscriberColumns = `id, user_id, email, first_name, last_name, status, source, mailchimp_synced, created_at, updated_at`

// SubscriberRepository implements the subscriber repository interface
type SubscriberRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

func NewSubscriberRepository(database *db.Database, logger *logrus.Logger) ports.SubscriberRepository {
	return &SubscriberRepository{db: database, logger: logger}
}

func (r *SubscriberRepository) Create(ctx context.Context, s *subscriber.Subscriber) error {
	query := `
		INSERT INTO subscribers (id, user_id, email, first_name, last_name, status, source, mailchimp_synced)
		VALUES (:id, :user_id, :email, :first_name, :last_name, :status, :source, :mailchimp_synced)
		RETURNING created_at, updated_at`
	rows, err := r.db.DB.NamedQueryContext(ctx, query, s)
	if err != nil {
		return wrapErr("create subscriber", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
			return wrapErr("create subscriber", err)
		}
	}
	return wrapErr("create subscriber", rows.Err())
}

func (r *SubscriberRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*subscriber.Subscriber, error) {
	var s subscriber.Subscriber
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE user_id = $1 AND id = $2`
	if err := r.db.DB.GetContext(ctx, &s, query, userID, id); err != nil {
		return nil, wrapErr("get subscriber", err)
	}
	return &s, nil
}

func (r *SubscriberRepository) GetByEmail(ctx context.Context, userID uuid.UUID, email string) (*subscriber.Subscriber, error) {
	var s subscriber.Subscriber
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE user_id = $1 AND email = $2`
	if err := r.db.DB.GetContext(ctx, &s, query, userID, subscriber.NormalizeEmail(email)); err != nil {
		return nil, wrapErr("get subscriber by email", err)
	}
	return &s, nil
}

func (r *SubscriberRepository) Update(ctx context.Context, s *subscriber.Subscriber) error {
	query := `
		UPDATE subscribers
		SET first_name = :first_name, last_name = :last_name, status = :status,
		    mailchimp_synced = :mailchimp_synced, updated_at = NOW()
		WHERE user_id = :user_id AND id = :id`
	res, err := r.db.DB.NamedExecContext(ctx, query, s)
	if err != nil {
		return wrapErr("update subscriber", err)
	}
	return requireAffected("update subscriber", res)
}

func (r *SubscriberRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.DB.ExecContext(ctx, `DELETE FROM subscribers WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return wrapErr("delete subscriber", err)
	}
	return requireAffected("delete subscriber", res)
}

// listWhere builds the WHERE clause shared by List and Count.
func listWhere(userID uuid.UUID, f subscriber.ListFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(email LIKE $%d OR LOWER(first_name || ' ' || last_name) LIKE $%d)", n, n))
	}
	return strings.Join(conds, " AND "), args
}

// List returns subscribers newest first. A non-positive limit returns all rows.
func (r *SubscriberRepository) List(ctx context.Context, userID uuid.UUID, f subscriber.ListFilter) ([]*subscriber.Subscriber, error) {
	where, args := listWhere(userID, f)
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE ` + where + ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	var out []*subscriber.Subscriber
	if err := r.db.DB.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, wrapErr("list subscribers", err)
	}
	return out, nil
}

func (r *SubscriberRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := r.db.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM subscribers WHERE user_id = $1 AND status = $2`, userID, subscriber.StatusSubscribed); err != nil {
		return 0, wrapErr("count subscribers", err)
	}
	return n, nil
}

func (r *SubscriberRepository) MarkSynced(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	query := `UPDATE subscribers SET mailchimp_synced = TRUE, updated_at = NOW() WHERE user_id = $1 AND id = ANY($2::uuid[])`
	if _, err := r.db.DB.ExecContext(ctx, query, userID, pq.Array(strs)); err != nil {
		return wrapErr("mark subscribers synced", err)
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"user_id": userID, "count": len(ids)}).Debug("subscribers marked synced")
	}
	return nil
}
