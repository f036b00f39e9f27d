package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/settings"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/db"
)

type SettingsRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

func NewSettingsRepository(database *db.Database, logger *logrus.Logger) ports.SettingsRepository {
	return &SettingsRepository{db: database, logger: logger}
}

func (r *SettingsRepository) Get(ctx context.Context, userID uuid.UUID) (*settings.Settings, error) {
	var s settings.Settings
	query := `
		SELECT user_id, sender_name, sender_email, reply_to, timezone, mailchimp_list_id, double_opt_in, updated_at
		FROM user_settings WHERE user_id = $1`
	if err := r.db.DB.GetContext(ctx, &s, query, userID); err != nil {
		return nil, wrapErr("get settings", err)
	}
	return &s, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, s *settings.Settings) error {
	query := `
		INSERT INTO user_settings (user_id, sender_name, sender_email, reply_to, timezone, mailchimp_list_id, double_opt_in, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			sender_name = EXCLUDED.sender_name,
			sender_email = EXCLUDED.sender_email,
			reply_to = EXCLUDED.reply_to,
			timezone = EXCLUDED.timezone,
			mailchimp_list_id = EXCLUDED.mailchimp_list_id,
			double_opt_in = EXCLUDED.double_opt_in,
			updated_at = NOW()
		RETURNING updated_at`
	err := r.db.DB.QueryRowxContext(ctx, query,
		s.UserID, s.SenderName, s.SenderEmail, s.ReplyTo, s.Timezone, s.MailchimpListID, s.DoubleOptIn,
	).Scan(&s.UpdatedAt)
	return wrapErr("upsert settings", err)
}
