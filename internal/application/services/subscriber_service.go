package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	domain "github.com/avatarctic/newsletter-saas/internal/core/domain/mailchimp"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/subscriber"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/mailchimp"
)

type SubscriberService struct {
	repo         ports.SubscriberRepository
	settingsRepo ports.SettingsRepository
	lists        ports.MailingListClient
	logger       *logrus.Logger
}

// NewSubscriberService wires subscriber management. lists may be nil, in which case
// no marketing-list sync happens.
func NewSubscriberService(repo ports.SubscriberRepository, settingsRepo ports.SettingsRepository, lists ports.MailingListClient, logger *logrus.Logger) ports.SubscriberService {
	return &SubscriberService{repo: repo, settingsRepo: settingsRepo, lists: lists, logger: logger}
}

func (s *SubscriberService) ListSubscribers(ctx context.Context, userID uuid.UUID, filter subscriber.ListFilter) ([]*subscriber.Subscriber, int, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ports.ErrInvalidInput, filter.Status)
	}
	items, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscribers: %w", err)
	}
	total, err := s.repo.Count(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return items, total, nil
}

func (s *SubscriberService) CountSubscribers(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.Count(ctx, userID)
}

func (s *SubscriberService) GetSubscriber(ctx context.Context, userID, id uuid.UUID) (*subscriber.Subscriber, error) {
	return s.repo.GetByID(ctx, userID, id)
}

func (s *SubscriberService) newSubscriber(ctx context.Context, userID uuid.UUID, req *subscriber.CreateSubscriberRequest) (*subscriber.Subscriber, error) {
	email := subscriber.NormalizeEmail(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	status := subscriber.StatusSubscribed
	if s.settingsRepo != nil {
		if st, err := s.settingsRepo.Get(ctx, userID); err == nil && st.DoubleOptIn {
			status = subscriber.StatusPending
		}
	}
	source := req.Source
	if source == "" {
		source = "api"
	}
	now := time.Now()
	return &subscriber.Subscriber{
		ID:        uuid.New(),
		UserID:    userID,
		Email:     email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Status:    status,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SubscriberService) CreateSubscriber(ctx context.Context, userID uuid.UUID, req *subscriber.CreateSubscriberRequest) (*subscriber.Subscriber, error) {
	sub, err := s.newSubscriber(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	if existing, err := s.repo.GetByEmail(ctx, userID, sub.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: subscriber %s", ports.ErrConflict, sub.Email)
	} else if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("failed to look up subscriber: %w", err)
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create subscriber: %w", err)
	}
	s.syncMember(ctx, sub)
	return sub, nil
}

func (s *SubscriberService) UpdateSubscriber(ctx context.Context, userID, id uuid.UUID, req *subscriber.UpdateSubscriberRequest) (*subscriber.Subscriber, error) {
	sub, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		sub.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		sub.LastName = *req.LastName
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", ports.ErrInvalidInput, *req.Status)
		}
		sub.Status = *req.Status
	}
	sub.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to update subscriber: %w", err)
	}
	s.syncMember(ctx, sub)
	return sub, nil
}

func (s *SubscriberService) DeleteSubscriber(ctx context.Context, userID, id uuid.UUID) error {
	sub, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete subscriber: %w", err)
	}
	if listID := resolveListID(ctx, s.settingsRepo, s.lists, userID); listID != "" {
		if err := s.lists.ArchiveMember(ctx, listID, sub.Email); err != nil {
			s.logSyncError(err, sub, "archive")
		}
	}
	return nil
}

// ImportSubscribers creates every new address and pushes them to the marketing list
// in one batch. Duplicates, in the request or already stored, are skipped.
func (s *SubscriberService) ImportSubscribers(ctx context.Context, userID uuid.UUID, req *subscriber.ImportRequest) (*subscriber.ImportResult, error) {
	if req == nil || len(req.Subscribers) == 0 {
		return nil, fmt.Errorf("%w: no subscribers to import", ports.ErrInvalidInput)
	}
	result := &subscriber.ImportResult{}
	seen := make(map[string]bool, len(req.Subscribers))
	var created []*subscriber.Subscriber

	for i := range req.Subscribers {
		sub, err := s.newSubscriber(ctx, userID, &req.Subscribers[i])
		if err != nil {
			result.Failures = append(result.Failures, err.Error())
			continue
		}
		if seen[sub.Email] {
			result.Skipped++
			continue
		}
		seen[sub.Email] = true
		if _, err := s.repo.GetByEmail(ctx, userID, sub.Email); err == nil {
			result.Skipped++
			continue
		} else if !isNotFound(err) {
			return result, fmt.Errorf("failed to look up subscriber: %w", err)
		}
		if req.Subscribers[i].Source == "" {
			sub.Source = "import"
		}
		if err := s.repo.Create(ctx, sub); err != nil {
			if errors.Is(err, ports.ErrConflict) {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("failed to create subscriber: %w", err)
		}
		created = append(created, sub)
	}
	result.Created = len(created)

	if len(created) > 0 {
		result.Synced = s.syncBatch(ctx, userID, created)
	}
	return result, nil
}

func toMember(sub *subscriber.Subscriber) domain.Member {
	m := domain.Member{
		EmailAddress: sub.Email,
		Status:       string(sub.Status),
		StatusIfNew:  string(sub.Status),
	}
	if sub.FirstName != "" || sub.LastName != "" {
		m.MergeFields = map[string]string{"FNAME": sub.FirstName, "LNAME": sub.LastName}
	}
	return m
}

// syncMember upserts one subscriber on the marketing list. Failures are logged only.
func (s *SubscriberService) syncMember(ctx context.Context, sub *subscriber.Subscriber) {
	listID := resolveListID(ctx, s.settingsRepo, s.lists, sub.UserID)
	if listID == "" {
		return
	}
	if err := s.lists.UpsertMember(ctx, listID, toMember(sub)); err != nil {
		s.logSyncError(err, sub, "upsert")
		return
	}
	if err := s.repo.MarkSynced(ctx, sub.UserID, []uuid.UUID{sub.ID}); err != nil {
		s.logSyncError(err, sub, "mark synced")
		return
	}
	sub.MailchimpSynced = true
}

// syncBatch pushes subscribers in one batched call and returns how many were accepted.
func (s *SubscriberService) syncBatch(ctx context.Context, userID uuid.UUID, subs []*subscriber.Subscriber) int {
	listID := resolveListID(ctx, s.settingsRepo, s.lists, userID)
	if listID == "" {
		return 0
	}
	members := make([]domain.Member, len(subs))
	for i, sub := range subs {
		members[i] = toMember(sub)
	}
	res, err := s.lists.BatchSubscribe(ctx, listID, members)
	if err != nil {
		if s.logger != nil && !errors.Is(err, mailchimp.ErrNotConfigured) {
			s.logger.WithFields(logrus.Fields{"user_id": userID, "count": len(subs)}).WithError(err).Warn("batch sync to mailing list failed")
		}
		return 0
	}
	return s.markAccepted(ctx, userID, subs, res)
}

func (s *SubscriberService) markAccepted(ctx context.Context, userID uuid.UUID, subs []*subscriber.Subscriber, res *domain.BatchResult) int {
	ids := acceptedIDs(subs, res)
	if len(ids) == 0 {
		return 0
	}
	if err := s.repo.MarkSynced(ctx, userID, ids); err != nil {
		if s.logger != nil {
			s.logger.WithField("user_id", userID).WithError(err).Warn("failed to mark subscribers synced")
		}
		return 0
	}
	accepted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		accepted[id] = true
	}
	for _, sub := range subs {
		sub.MailchimpSynced = accepted[sub.ID]
	}
	return len(ids)
}

// acceptedIDs returns the subscribers the batch did not report as failed.
func acceptedIDs(subs []*subscriber.Subscriber, res *domain.BatchResult) []uuid.UUID {
	failed := make(map[string]bool, len(res.Errors))
	for _, e := range res.Errors {
		failed[subscriber.NormalizeEmail(e.EmailAddress)] = true
	}
	ids := make([]uuid.UUID, 0, len(subs))
	for _, sub := range subs {
		if !failed[sub.Email] {
			ids = append(ids, sub.ID)
		}
	}
	return ids
}

func (s *SubscriberService) logSyncError(err error, sub *subscriber.Subscriber, op string) {
	if s.logger == nil {
		return
	}
	entry := s.logger.WithFields(logrus.Fields{
		"user_id":       sub.UserID,
		"subscriber_id": sub.ID,
		"op":            op,
	}).WithError(err)
	if errors.Is(err, mailchimp.ErrNotConfigured) {
		entry.Debug("mailing list sync skipped")
		return
	}
	entry.Warn("mailing list sync failed")
}
