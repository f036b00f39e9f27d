package ports

import (
	"context"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/settings"
	"github.com/google/uuid"
)

type SettingsRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*settings.Settings, error)
	Upsert(ctx context.Context, s *settings.Settings) error
}

type SettingsService interface {
	GetSettings(ctx context.Context, userID uuid.UUID) (*settings.Settings, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, req *settings.UpdateSettingsRequest) (*settings.Settings, error)
}
