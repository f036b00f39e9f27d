package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	impl "github.com/avatarctic/newsletter-saas/internal/application/services"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/mailchimp"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/subscriber"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/cachekeys"
	infraMailchimp "github.com/avatarctic/newsletter-saas/internal/infrastructure/mailchimp"
	tmocks "github.com/avatarctic/newsletter-saas/test/mocks"
)

func TestGetStatus_CachesSuccess(t *testing.T) {
	uid := uuid.New()
	calls := 0
	lists := &tmocks.MailingListClientMock{ListID: "l1", GetListFn: func(ctx context.Context, listID string) (*mailchimp.ListStats, error) {
		calls++
		return &mailchimp.ListStats{ID: listID, MemberCount: 5}, nil
	}}
	cache := newTestCache(t)
	svc := impl.NewMailchimpService(lists, &tmocks.SubscriberRepositoryMock{}, &tmocks.SettingsRepositoryMock{}, cache, time.Minute, nil)

	st, err := svc.GetStatus(context.Background(), uid)
	require.NoError(t, err)
	require.True(t, st.Connected)
	require.Equal(t, 5, st.List.MemberCount)
	_, _ = svc.GetStatus(context.Background(), uid)
	require.Equal(t, 1, calls)
	require.True(t, cache.Has(cachekeys.MailchimpStatus(uid)))
}

func TestGetStatus_FailureNotCached(t *testing.T) {
	uid := uuid.New()
	lists := &tmocks.MailingListClientMock{ListID: "l1", GetListFn: func(ctx context.Context, listID string) (*mailchimp.ListStats, error) {
		return nil, errors.New("retry exhausted")
	}}
	cache := newTestCache(t)
	svc := impl.NewMailchimpService(lists, nil, &tmocks.SettingsRepositoryMock{}, cache, time.Minute, nil)

	st, err := svc.GetStatus(context.Background(), uid)
	require.NoError(t, err)
	require.False(t, st.Connected)
	require.Contains(t, st.Error, "retry exhausted")
	require.False(t, cache.Has(cachekeys.MailchimpStatus(uid)))
}

func TestGetStatus_NoList(t *testing.T) {
	svc := impl.NewMailchimpService(&tmocks.MailingListClientMock{}, nil, &tmocks.SettingsRepositoryMock{}, newTestCache(t), time.Minute, nil)
	st, err := svc.GetStatus(context.Background(), uuid.New())
	require.NoError(t, err)
	require.False(t, st.Connected)
	require.Equal(t, infraMailchimp.ErrNotConfigured.Error(), st.Error)
}

func TestSyncSubscribers_MarksAcceptedAndInvalidates(t *testing.T) {
	uid := uuid.New()
	a := &subscriber.Subscriber{ID: uuid.New(), Email: "a@example.com", Status: subscriber.StatusSubscribed}
	b := &subscriber.Subscriber{ID: uuid.New(), Email: "b@example.com", Status: subscriber.StatusSubscribed}
	var marked []uuid.UUID
	subs := &tmocks.SubscriberRepositoryMock{
		ListFn: func(ctx context.Context, userID uuid.UUID, f subscriber.ListFilter) ([]*subscriber.Subscriber, error) {
			return []*subscriber.Subscriber{a, b}, nil
		},
		MarkSyncedFn: func(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
			marked = ids
			return nil
		},
	}
	lists := &tmocks.MailingListClientMock{ListID: "l1", BatchSubscribeFn: func(ctx context.Context, listID string, members []mailchimp.Member) (*mailchimp.BatchResult, error) {
		return &mailchimp.BatchResult{TotalCreated: 1, ErrorCount: 1, Errors: []mailchimp.BatchError{{EmailAddress: "b@example.com"}}}, nil
	}}
	cache := newTestCache(t)
	cache.Set(cachekeys.MailchimpStatus(uid), &mailchimp.Status{Connected: true}, time.Minute)
	svc := impl.NewMailchimpService(lists, subs, &tmocks.SettingsRepositoryMock{}, cache, time.Minute, nil)

	res, err := svc.SyncSubscribers(context.Background(), uid)
	require.NoError(t, err)
	require.Equal(t, &mailchimp.SyncResult{Pushed: 2, Created: 1, Errors: 1}, res)
	require.Equal(t, []uuid.UUID{a.ID}, marked)
	require.False(t, cache.Has(cachekeys.MailchimpStatus(uid)))
}

func TestSyncSubscribers_NotConfigured(t *testing.T) {
	svc := impl.NewMailchimpService(&tmocks.MailingListClientMock{}, &tmocks.SubscriberRepositoryMock{}, &tmocks.SettingsRepositoryMock{}, nil, time.Minute, nil)
	_, err := svc.SyncSubscribers(context.Background(), uuid.New())
	require.ErrorIs(t, err, infraMailchimp.ErrNotConfigured)
}

func TestSyncSubscribers_BatchFailurePropagates(t *testing.T) {
	subs := &tmocks.SubscriberRepositoryMock{ListFn: func(ctx context.Context, userID uuid.UUID, f subscriber.ListFilter) ([]*subscriber.Subscriber, error) {
		return []*subscriber.Subscriber{{ID: uuid.New(), Email: "a@example.com"}}, nil
	}}
	lists := &tmocks.MailingListClientMock{ListID: "l1", BatchSubscribeFn: func(ctx context.Context, listID string, members []mailchimp.Member) (*mailchimp.BatchResult, error) {
		return nil, errors.New("boom")
	}}
	svc := impl.NewMailchimpService(lists, subs, &tmocks.SettingsRepositoryMock{}, nil, time.Minute, nil)
	_, err := svc.SyncSubscribers(context.Background(), uuid.New())
	require.Error(t, err)
}
