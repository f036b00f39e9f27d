package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	domain "github.com/avatarctic/newsletter-saas/internal/core/domain/mailchimp"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/subscriber"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/cachekeys"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/expiring"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/mailchimp"
)

type MailchimpService struct {
	lists        ports.MailingListClient
	subscribers  ports.SubscriberRepository
	settingsRepo ports.SettingsRepository
	cache        ports.ExpiringCache
	statusTTL    time.Duration
	logger       *logrus.Logger
	now          func() time.Time
}

func NewMailchimpService(lists ports.MailingListClient, subscribers ports.SubscriberRepository, settingsRepo ports.SettingsRepository, cache ports.ExpiringCache, statusTTL time.Duration, logger *logrus.Logger) ports.MailchimpService {
	return &MailchimpService{
		lists:        lists,
		subscribers:  subscribers,
		settingsRepo: settingsRepo,
		cache:        cache,
		statusTTL:    statusTTL,
		logger:       logger,
		now:          time.Now,
	}
}

// GetStatus reports list health. Only successful lookups are cached; a failure is
// returned as a disconnected status so the next request probes again.
func (s *MailchimpService) GetStatus(ctx context.Context, userID uuid.UUID) (*domain.Status, error) {
	st, err := expiring.GetOrSetAs(ctx, s.cache, cachekeys.MailchimpStatus(userID), s.statusTTL, func(ctx context.Context) (*domain.Status, error) {
		listID := resolveListID(ctx, s.settingsRepo, s.lists, userID)
		if listID == "" {
			return nil, mailchimp.ErrNotConfigured
		}
		stats, err := s.lists.GetList(ctx, listID)
		if err != nil {
			return nil, err
		}
		return &domain.Status{Connected: true, List: stats, CheckedAt: s.now()}, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if s.logger != nil {
			s.logger.WithField("user_id", userID).WithError(err).Warn("mailing list status check failed")
		}
		return &domain.Status{Connected: false, Error: err.Error(), CheckedAt: s.now()}, nil
	}
	return st, nil
}

// SyncSubscribers pushes every subscribed address in one batched call and marks
// the accepted ones as synced.
func (s *MailchimpService) SyncSubscribers(ctx context.Context, userID uuid.UUID) (*domain.SyncResult, error) {
	listID := resolveListID(ctx, s.settingsRepo, s.lists, userID)
	if listID == "" {
		return nil, mailchimp.ErrNotConfigured
	}
	subs, err := s.subscribers.List(ctx, userID, subscriber.ListFilter{Status: subscriber.StatusSubscribed})
	if err != nil {
		return nil, fmt.Errorf("failed to load subscribers: %w", err)
	}
	result := &domain.SyncResult{Pushed: len(subs)}
	if len(subs) == 0 {
		return result, nil
	}

	members := make([]domain.Member, len(subs))
	for i, sub := range subs {
		members[i] = toMember(sub)
	}
	res, err := s.lists.BatchSubscribe(ctx, listID, members)
	if err != nil {
		return nil, fmt.Errorf("failed to sync subscribers: %w", err)
	}
	result.Created, result.Updated, result.Errors = res.TotalCreated, res.TotalUpdated, res.ErrorCount

	ids := acceptedIDs(subs, res)
	if len(ids) > 0 {
		if err := s.subscribers.MarkSynced(ctx, userID, ids); err != nil {
			return nil, fmt.Errorf("failed to mark subscribers synced: %w", err)
		}
	}
	invalidate(s.cache, s.logger, cachekeys.MailchimpSync(userID))

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"pushed":  result.Pushed,
			"created": result.Created,
			"updated": result.Updated,
			"errors":  result.Errors,
		}).Info("mailing list sync complete")
	}
	return result, nil
}
