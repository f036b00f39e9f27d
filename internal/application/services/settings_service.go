package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/settings"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
)

type SettingsService struct {
	repo   ports.SettingsRepository
	logger *logrus.Logger
}

func NewSettingsService(repo ports.SettingsRepository, logger *logrus.Logger) ports.SettingsService {
	return &SettingsService{repo: repo, logger: logger}
}

// GetSettings returns the stored settings, or the defaults when none were saved.
func (s *SettingsService) GetSettings(ctx context.Context, userID uuid.UUID) (*settings.Settings, error) {
	st, err := s.repo.Get(ctx, userID)
	if isNotFound(err) {
		return settings.Defaults(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return st, nil
}

func (s *SettingsService) UpdateSettings(ctx context.Context, userID uuid.UUID, req *settings.UpdateSettingsRequest) (*settings.Settings, error) {
	st, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	req.Apply(st)
	if st.SenderEmail != "" {
		if err := validateEmail(st.SenderEmail); err != nil {
			return nil, err
		}
	}
	if st.ReplyTo != "" {
		if err := validateEmail(st.ReplyTo); err != nil {
			return nil, err
		}
	}
	if _, err := time.LoadLocation(st.Timezone); err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ports.ErrInvalidInput, st.Timezone)
	}
	st.UpdatedAt = time.Now()
	if err := s.repo.Upsert(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	if s.logger != nil {
		s.logger.WithField("user_id", userID).Info("settings updated")
	}
	return st, nil
}
