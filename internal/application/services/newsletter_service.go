package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/newsletter"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/settings"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/subscriber"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
)

type NewsletterService struct {
	repo         ports.NewsletterRepository
	subscribers  ports.SubscriberRepository
	settingsRepo ports.SettingsRepository
	email        ports.EmailService
	logger       *logrus.Logger
	now          func() time.Time
}

func NewNewsletterService(repo ports.NewsletterRepository, subscribers ports.SubscriberRepository, settingsRepo ports.SettingsRepository, email ports.EmailService, logger *logrus.Logger) ports.NewsletterService {
	return &NewsletterService{
		repo:         repo,
		subscribers:  subscribers,
		settingsRepo: settingsRepo,
		email:        email,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *NewsletterService) ListNewsletters(ctx context.Context, userID uuid.UUID, status newsletter.Status, limit, offset int) ([]*newsletter.Newsletter, int, error) {
	items, err := s.repo.List(ctx, userID, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list newsletters: %w", err)
	}
	total, err := s.repo.Count(ctx, userID, status)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count newsletters: %w", err)
	}
	return items, total, nil
}

func (s *NewsletterService) GetNewsletter(ctx context.Context, userID, id uuid.UUID) (*newsletter.Newsletter, error) {
	return s.repo.GetByID(ctx, userID, id)
}

func (s *NewsletterService) CreateNewsletter(ctx context.Context, userID uuid.UUID, req *newsletter.CreateNewsletterRequest) (*newsletter.Newsletter, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return nil, fmt.Errorf("%w: subject is required", ports.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ports.ErrInvalidInput)
	}
	now := s.now()
	n := &newsletter.Newsletter{
		ID:          uuid.New(),
		UserID:      userID,
		Subject:     strings.TrimSpace(req.Subject),
		PreviewText: req.PreviewText,
		Content:     req.Content,
		Status:      newsletter.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create newsletter: %w", err)
	}
	return n, nil
}

func (s *NewsletterService) UpdateNewsletter(ctx context.Context, userID, id uuid.UUID, req *newsletter.UpdateNewsletterRequest) (*newsletter.Newsletter, error) {
	n, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !n.IsEditable() {
		return nil, fmt.Errorf("%w: newsletter is %s", ports.ErrInvalidState, n.Status)
	}
	if req.Subject != nil {
		if strings.TrimSpace(*req.Subject) == "" {
			return nil, fmt.Errorf("%w: subject is required", ports.ErrInvalidInput)
		}
		n.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.PreviewText != nil {
		n.PreviewText = *req.PreviewText
	}
	if req.Content != nil {
		n.Content = *req.Content
	}
	n.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to update newsletter: %w", err)
	}
	return n, nil
}

func (s *NewsletterService) DeleteNewsletter(ctx context.Context, userID, id uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if n.Status == newsletter.StatusSending {
		return fmt.Errorf("%w: newsletter is being sent", ports.ErrInvalidState)
	}
	return s.repo.Delete(ctx, userID, id)
}

func (s *NewsletterService) ScheduleNewsletter(ctx context.Context, userID, id uuid.UUID, at time.Time) (*newsletter.Newsletter, error) {
	if !at.After(s.now()) {
		return nil, fmt.Errorf("%w: scheduled time must be in the future", ports.ErrInvalidInput)
	}
	n, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !n.IsEditable() {
		return nil, fmt.Errorf("%w: newsletter is %s", ports.ErrInvalidState, n.Status)
	}
	at = at.UTC()
	n.ScheduledAt = &at
	n.Status = newsletter.StatusScheduled
	n.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to schedule newsletter: %w", err)
	}
	return n, nil
}

// SendNewsletter delivers to every subscribed recipient. The newsletter moves
// through sending to sent, or to failed when delivery is rejected outright.
func (s *NewsletterService) SendNewsletter(ctx context.Context, userID, id uuid.UUID) (*newsletter.Newsletter, error) {
	n, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !n.IsEditable() {
		return nil, fmt.Errorf("%w: newsletter is %s", ports.ErrInvalidState, n.Status)
	}
	recipients, err := s.subscribers.List(ctx, userID, subscriber.ListFilter{Status: subscriber.StatusSubscribed})
	if err != nil {
		return nil, fmt.Errorf("failed to load recipients: %w", err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: no subscribed recipients", ports.ErrInvalidState)
	}

	sender := settings.Defaults(userID)
	if st, err := s.settingsRepo.Get(ctx, userID); err == nil {
		sender = st
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("failed to load sender settings: %w", err)
	}

	n.Status = newsletter.StatusSending
	n.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to mark newsletter sending: %w", err)
	}

	accepted, sendErr := s.email.SendNewsletter(ctx, sender, n, recipients)
	now := s.now()
	n.UpdatedAt = now
	if sendErr != nil {
		n.Status = newsletter.StatusFailed
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": userID, "newsletter_id": id}).WithError(sendErr).Error("newsletter delivery failed")
		}
	} else {
		n.Status = newsletter.StatusSent
		n.SentAt = &now
		n.RecipientCount = accepted
	}
	// the request context may be gone after a long send; the final state must still land
	if err := s.repo.Update(context.WithoutCancel(ctx), n); err != nil {
		return nil, fmt.Errorf("failed to record send result: %w", err)
	}
	if sendErr != nil {
		return n, fmt.Errorf("failed to send newsletter: %w", sendErr)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":       userID,
			"newsletter_id": id,
			"recipients":    accepted,
		}).Info("newsletter sent")
	}
	return n, nil
}

func (s *NewsletterService) GetStats(ctx context.Context, userID uuid.UUID) (*newsletter.Stats, error) {
	st, err := s.repo.Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load newsletter stats: %w", err)
	}
	return st, nil
}
