package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	impl "github.com/avatarctic/newsletter-saas/internal/application/services"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/newsletter"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/settings"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/subscriber"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	tmocks "github.com/avatarctic/newsletter-saas/test/mocks"
)

// newsletterStore keeps one newsletter in memory and records status transitions.
type newsletterStore struct {
	n        *newsletter.Newsletter
	statuses []newsletter.Status
}

func (s *newsletterStore) mock() *tmocks.NewsletterRepositoryMock {
	return &tmocks.NewsletterRepositoryMock{
		GetByIDFn: func(ctx context.Context, userID, id uuid.UUID) (*newsletter.Newsletter, error) {
			if s.n == nil || s.n.ID != id {
				return nil, ports.ErrNotFound
			}
			cp := *s.n
			return &cp, nil
		},
		UpdateFn: func(ctx context.Context, n *newsletter.Newsletter) error {
			cp := *n
			s.n = &cp
			s.statuses = append(s.statuses, n.Status)
			return nil
		},
	}
}

func subscribedRecipients(n int) *tmocks.SubscriberRepositoryMock {
	return &tmocks.SubscriberRepositoryMock{ListFn: func(ctx context.Context, userID uuid.UUID, f subscriber.ListFilter) ([]*subscriber.Subscriber, error) {
		if f.Status != subscriber.StatusSubscribed || f.Limit != 0 {
			return nil, errors.New("unexpected filter")
		}
		out := make([]*subscriber.Subscriber, n)
		for i := range out {
			out[i] = &subscriber.Subscriber{ID: uuid.New(), Email: "r@example.com"}
		}
		return out, nil
	}}
}

func TestCreateNewsletter_Validation(t *testing.T) {
	svc := impl.NewNewsletterService(&tmocks.NewsletterRepositoryMock{}, nil, nil, nil, nil)
	_, err := svc.CreateNewsletter(context.Background(), uuid.New(), &newsletter.CreateNewsletterRequest{Subject: " ", Content: "x"})
	require.ErrorIs(t, err, ports.ErrInvalidInput)
	_, err = svc.CreateNewsletter(context.Background(), uuid.New(), &newsletter.CreateNewsletterRequest{Subject: "s"})
	require.ErrorIs(t, err, ports.ErrInvalidInput)

	n, err := svc.CreateNewsletter(context.Background(), uuid.New(), &newsletter.CreateNewsletterRequest{Subject: " Weekly ", Content: "<p>hi</p>"})
	require.NoError(t, err)
	require.Equal(t, "Weekly", n.Subject)
	require.Equal(t, newsletter.StatusDraft, n.Status)
}

func TestSendNewsletter_Success(t *testing.T) {
	uid := uuid.New()
	store := &newsletterStore{n: &newsletter.Newsletter{ID: uuid.New(), UserID: uid, Status: newsletter.StatusDraft, Subject: "s"}}
	settingsRepo := &tmocks.SettingsRepositoryMock{GetFn: func(ctx context.Context, userID uuid.UUID) (*settings.Settings, error) {
		return &settings.Settings{UserID: userID, SenderName: "Ann"}, nil
	}}
	var gotSender *settings.Settings
	email := &tmocks.EmailServiceMock{SendNewsletterFn: func(ctx context.Context, sender *settings.Settings, n *newsletter.Newsletter, r []*subscriber.Subscriber) (int, error) {
		gotSender = sender
		require.Equal(t, newsletter.StatusSending, n.Status)
		return len(r) - 1, nil
	}}
	svc := impl.NewNewsletterService(store.mock(), subscribedRecipients(3), settingsRepo, email, nil)

	n, err := svc.SendNewsletter(context.Background(), uid, store.n.ID)
	require.NoError(t, err)
	require.Equal(t, newsletter.StatusSent, n.Status)
	require.Equal(t, 2, n.RecipientCount)
	require.NotNil(t, n.SentAt)
	require.Equal(t, "Ann", gotSender.SenderName)
	require.Equal(t, []newsletter.Status{newsletter.StatusSending, newsletter.StatusSent}, store.statuses)
}

func TestSendNewsletter_DeliveryFailureMarksFailed(t *testing.T) {
	uid := uuid.New()
	store := &newsletterStore{n: &newsletter.Newsletter{ID: uuid.New(), UserID: uid, Status: newsletter.StatusScheduled}}
	email := &tmocks.EmailServiceMock{SendNewsletterFn: func(ctx context.Context, sender *settings.Settings, n *newsletter.Newsletter, r []*subscriber.Subscriber) (int, error) {
		return 0, errors.New("provider down")
	}}
	svc := impl.NewNewsletterService(store.mock(), subscribedRecipients(1), &tmocks.SettingsRepositoryMock{}, email, nil)

	n, err := svc.SendNewsletter(context.Background(), uid, store.n.ID)
	require.Error(t, err)
	require.Equal(t, newsletter.StatusFailed, n.Status)
	require.Equal(t, newsletter.StatusFailed, store.n.Status)
}

func TestSendNewsletter_NoRecipients(t *testing.T) {
	uid := uuid.New()
	store := &newsletterStore{n: &newsletter.Newsletter{ID: uuid.New(), UserID: uid, Status: newsletter.StatusDraft}}
	svc := impl.NewNewsletterService(store.mock(), subscribedRecipients(0), &tmocks.SettingsRepositoryMock{}, &tmocks.EmailServiceMock{}, nil)
	_, err := svc.SendNewsletter(context.Background(), uid, store.n.ID)
	require.ErrorIs(t, err, ports.ErrInvalidState)
	require.Empty(t, store.statuses)
}

func TestSendNewsletter_AlreadySent(t *testing.T) {
	uid := uuid.New()
	store := &newsletterStore{n: &newsletter.Newsletter{ID: uuid.New(), UserID: uid, Status: newsletter.StatusSent}}
	svc := impl.NewNewsletterService(store.mock(), subscribedRecipients(1), &tmocks.SettingsRepositoryMock{}, &tmocks.EmailServiceMock{}, nil)
	_, err := svc.SendNewsletter(context.Background(), uid, store.n.ID)
	require.ErrorIs(t, err, ports.ErrInvalidState)
}

func TestScheduleNewsletter(t *testing.T) {
	uid := uuid.New()
	store := &newsletterStore{n: &newsletter.Newsletter{ID: uuid.New(), UserID: uid, Status: newsletter.StatusDraft}}
	svc := impl.NewNewsletterService(store.mock(), nil, nil, nil, nil)

	_, err := svc.ScheduleNewsletter(context.Background(), uid, store.n.ID, time.Now().Add(-time.Minute))
	require.ErrorIs(t, err, ports.ErrInvalidInput)

	at := time.Now().Add(time.Hour)
	n, err := svc.ScheduleNewsletter(context.Background(), uid, store.n.ID, at)
	require.NoError(t, err)
	require.Equal(t, newsletter.StatusScheduled, n.Status)
	require.True(t, n.ScheduledAt.Equal(at))
}

func TestUpdateNewsletter_NotEditable(t *testing.T) {
	uid := uuid.New()
	store := &newsletterStore{n: &newsletter.Newsletter{ID: uuid.New(), UserID: uid, Status: newsletter.StatusSent}}
	svc := impl.NewNewsletterService(store.mock(), nil, nil, nil, nil)
	subject := "new"
	_, err := svc.UpdateNewsletter(context.Background(), uid, store.n.ID, &newsletter.UpdateNewsletterRequest{Subject: &subject})
	require.ErrorIs(t, err, ports.ErrInvalidState)
}

func TestDeleteNewsletter_WhileSending(t *testing.T) {
	uid := uuid.New()
	store := &newsletterStore{n: &newsletter.Newsletter{ID: uuid.New(), UserID: uid, Status: newsletter.StatusSending}}
	svc := impl.NewNewsletterService(store.mock(), nil, nil, nil, nil)
	require.ErrorIs(t, svc.DeleteNewsletter(context.Background(), uid, store.n.ID), ports.ErrInvalidState)
}

func TestListNewsletters(t *testing.T) {
	repo := &tmocks.NewsletterRepositoryMock{
		ListFn: func(ctx context.Context, userID uuid.UUID, status newsletter.Status, limit, offset int) ([]*newsletter.Newsletter, error) {
			require.Equal(t, newsletter.StatusDraft, status)
			return []*newsletter.Newsletter{{}}, nil
		},
		CountFn: func(ctx context.Context, userID uuid.UUID, status newsletter.Status) (int, error) { return 7, nil },
	}
	svc := impl.NewNewsletterService(repo, nil, nil, nil, nil)
	items, total, err := svc.ListNewsletters(context.Background(), uuid.New(), newsletter.StatusDraft, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 7, total)
}
