package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/analytics"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/auth"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/mailchimp"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/newsletter"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/settings"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/subscriber"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
)

// TokenServiceMock is a lightweight mock for TokenService
type TokenServiceMock struct {
	ValidateTokenFn func(ctx context.Context, token string) (*auth.Claims, error)
	IssueTokenFn    func(userID uuid.UUID, email string, ttl time.Duration) (string, error)
}

func (m *TokenServiceMock) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	return nil, fmt.Errorf("invalid token")
}
func (m *TokenServiceMock) IssueToken(userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	if m.IssueTokenFn != nil {
		return m.IssueTokenFn(userID, email, ttl)
	}
	return "token", nil
}

// RateLimiterServiceMock allows every request unless AllowFn says otherwise
type RateLimiterServiceMock struct {
	AllowFn func(ctx context.Context, userID uuid.UUID) (bool, int, int, time.Time, error)
}

func (m *RateLimiterServiceMock) Allow(ctx context.Context, userID uuid.UUID) (bool, int, int, time.Time, error) {
	if m.AllowFn != nil {
		return m.AllowFn(ctx, userID)
	}
	return true, 100, 100, time.Now().Add(time.Minute), nil
}

// RateLimitRepositoryMock mocks the Redis counter store
type RateLimitRepositoryMock struct {
	IncrementWindowFn func(ctx context.Context, userID uuid.UUID, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error)
}

func (m *RateLimitRepositoryMock) IncrementWindow(ctx context.Context, userID uuid.UUID, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
	if m.IncrementWindowFn != nil {
		return m.IncrementWindowFn(ctx, userID, window, keyPrefix, ttl)
	}
	return 1, time.Now().Truncate(window), nil
}

// RecordingCache wraps an ExpiringCache and records invalidation calls
type RecordingCache struct {
	ports.ExpiringCache

	mu              sync.Mutex
	DeleteMatchings int
	DeletePatterns  []string
}

func (r *RecordingCache) DeleteMatching(m ports.KeyMatcher) int {
	r.mu.Lock()
	r.DeleteMatchings++
	r.mu.Unlock()
	return r.ExpiringCache.DeleteMatching(m)
}
func (r *RecordingCache) DeletePattern(p string) (int, error) {
	r.mu.Lock()
	r.DeletePatterns = append(r.DeletePatterns, p)
	r.mu.Unlock()
	return r.ExpiringCache.DeletePattern(p)
}
func (r *RecordingCache) Invalidations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.DeleteMatchings + len(r.DeletePatterns)
}

// SubscriberRepositoryMock is a lightweight mock for SubscriberRepository
type SubscriberRepositoryMock struct {
	CreateFn     func(ctx context.Context, s *subscriber.Subscriber) error
	GetByIDFn    func(ctx context.Context, userID, id uuid.UUID) (*subscriber.Subscriber, error)
	GetByEmailFn func(ctx context.Context, userID uuid.UUID, email string) (*subscriber.Subscriber, error)
	UpdateFn     func(ctx context.Context, s *subscriber.Subscriber) error
	DeleteFn     func(ctx context.Context, userID, id uuid.UUID) error
	ListFn       func(ctx context.Context, userID uuid.UUID, filter subscriber.ListFilter) ([]*subscriber.Subscriber, error)
	CountFn      func(ctx context.Context, userID uuid.UUID) (int, error)
	MarkSyncedFn func(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error
}

func (m *SubscriberRepositoryMock) Create(ctx context.Context, s *subscriber.Subscriber) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, s)
	}
	return nil
}
func (m *SubscriberRepositoryMock) GetByID(ctx context.Context, userID, id uuid.UUID) (*subscriber.Subscriber, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, userID, id)
	}
	return nil, ports.ErrNotFound
}
func (m *SubscriberRepositoryMock) GetByEmail(ctx context.Context, userID uuid.UUID, email string) (*subscriber.Subscriber, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, userID, email)
	}
	return nil, ports.ErrNotFound
}
func (m *SubscriberRepositoryMock) Update(ctx context.Context, s *subscriber.Subscriber) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, s)
	}
	return nil
}
func (m *SubscriberRepositoryMock) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, id)
	}
	return nil
}
func (m *SubscriberRepositoryMock) List(ctx context.Context, userID uuid.UUID, filter subscriber.ListFilter) ([]*subscriber.Subscriber, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, userID, filter)
	}
	return nil, nil
}
func (m *SubscriberRepositoryMock) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, userID)
	}
	return 0, nil
}
func (m *SubscriberRepositoryMock) MarkSynced(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if m.MarkSyncedFn != nil {
		return m.MarkSyncedFn(ctx, userID, ids)
	}
	return nil
}

// NewsletterRepositoryMock is a lightweight mock for NewsletterRepository
type NewsletterRepositoryMock struct {
	CreateFn  func(ctx context.Context, n *newsletter.Newsletter) error
	GetByIDFn func(ctx context.Context, userID, id uuid.UUID) (*newsletter.Newsletter, error)
	UpdateFn  func(ctx context.Context, n *newsletter.Newsletter) error
	DeleteFn  func(ctx context.Context, userID, id uuid.UUID) error
	ListFn    func(ctx context.Context, userID uuid.UUID, status newsletter.Status, limit, offset int) ([]*newsletter.Newsletter, error)
	CountFn   func(ctx context.Context, userID uuid.UUID, status newsletter.Status) (int, error)
	StatsFn   func(ctx context.Context, userID uuid.UUID) (*newsletter.Stats, error)
	OwnerOfFn func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

func (m *NewsletterRepositoryMock) Create(ctx context.Context, n *newsletter.Newsletter) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, n)
	}
	return nil
}
func (m *NewsletterRepositoryMock) GetByID(ctx context.Context, userID, id uuid.UUID) (*newsletter.Newsletter, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, userID, id)
	}
	return nil, ports.ErrNotFound
}
func (m *NewsletterRepositoryMock) Update(ctx context.Context, n *newsletter.Newsletter) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, n)
	}
	return nil
}
func (m *NewsletterRepositoryMock) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, id)
	}
	return nil
}
func (m *NewsletterRepositoryMock) List(ctx context.Context, userID uuid.UUID, status newsletter.Status, limit, offset int) ([]*newsletter.Newsletter, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, userID, status, limit, offset)
	}
	return nil, nil
}
func (m *NewsletterRepositoryMock) Count(ctx context.Context, userID uuid.UUID, status newsletter.Status) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, userID, status)
	}
	return 0, nil
}
func (m *NewsletterRepositoryMock) Stats(ctx context.Context, userID uuid.UUID) (*newsletter.Stats, error) {
	if m.StatsFn != nil {
		return m.StatsFn(ctx, userID)
	}
	return &newsletter.Stats{}, nil
}
func (m *NewsletterRepositoryMock) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if m.OwnerOfFn != nil {
		return m.OwnerOfFn(ctx, id)
	}
	return uuid.Nil, ports.ErrNotFound
}

// AnalyticsRepositoryMock is a lightweight mock for AnalyticsRepository
type AnalyticsRepositoryMock struct {
	GrowthFn           func(ctx context.Context, userID uuid.UUID, since time.Time) ([]analytics.GrowthPoint, error)
	SubscribedBeforeFn func(ctx context.Context, userID uuid.UUID, t time.Time) (int, error)
	EngagementFn       func(ctx context.Context, userID uuid.UUID) (*analytics.Engagement, error)
	RecordEventFn      func(ctx context.Context, e *analytics.Event) error
}

func (m *AnalyticsRepositoryMock) Growth(ctx context.Context, userID uuid.UUID, since time.Time) ([]analytics.GrowthPoint, error) {
	if m.GrowthFn != nil {
		return m.GrowthFn(ctx, userID, since)
	}
	return nil, nil
}
func (m *AnalyticsRepositoryMock) SubscribedBefore(ctx context.Context, userID uuid.UUID, t time.Time) (int, error) {
	if m.SubscribedBeforeFn != nil {
		return m.SubscribedBeforeFn(ctx, userID, t)
	}
	return 0, nil
}
func (m *AnalyticsRepositoryMock) Engagement(ctx context.Context, userID uuid.UUID) (*analytics.Engagement, error) {
	if m.EngagementFn != nil {
		return m.EngagementFn(ctx, userID)
	}
	return &analytics.Engagement{}, nil
}
func (m *AnalyticsRepositoryMock) RecordEvent(ctx context.Context, e *analytics.Event) error {
	if m.RecordEventFn != nil {
		return m.RecordEventFn(ctx, e)
	}
	return nil
}

// SettingsRepositoryMock is a lightweight mock for SettingsRepository
type SettingsRepositoryMock struct {
	GetFn    func(ctx context.Context, userID uuid.UUID) (*settings.Settings, error)
	UpsertFn func(ctx context.Context, s *settings.Settings) error
}

func (m *SettingsRepositoryMock) Get(ctx context.Context, userID uuid.UUID) (*settings.Settings, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, userID)
	}
	return nil, ports.ErrNotFound
}
func (m *SettingsRepositoryMock) Upsert(ctx context.Context, s *settings.Settings) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, s)
	}
	return nil
}

// MailingListClientMock is a lightweight mock for MailingListClient
type MailingListClientMock struct {
	PingFn           func(ctx context.Context) error
	GetListFn        func(ctx context.Context, listID string) (*mailchimp.ListStats, error)
	BatchSubscribeFn func(ctx context.Context, listID string, members []mailchimp.Member) (*mailchimp.BatchResult, error)
	UpsertMemberFn   func(ctx context.Context, listID string, member mailchimp.Member) error
	ArchiveMemberFn  func(ctx context.Context, listID, email string) error
	ListID           string
}

func (m *MailingListClientMock) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return nil
}
func (m *MailingListClientMock) GetList(ctx context.Context, listID string) (*mailchimp.ListStats, error) {
	if m.GetListFn != nil {
		return m.GetListFn(ctx, listID)
	}
	return &mailchimp.ListStats{ID: listID}, nil
}
func (m *MailingListClientMock) BatchSubscribe(ctx context.Context, listID string, members []mailchimp.Member) (*mailchimp.BatchResult, error) {
	if m.BatchSubscribeFn != nil {
		return m.BatchSubscribeFn(ctx, listID, members)
	}
	return &mailchimp.BatchResult{TotalCreated: len(members)}, nil
}
func (m *MailingListClientMock) UpsertMember(ctx context.Context, listID string, member mailchimp.Member) error {
	if m.UpsertMemberFn != nil {
		return m.UpsertMemberFn(ctx, listID, member)
	}
	return nil
}
func (m *MailingListClientMock) ArchiveMember(ctx context.Context, listID, email string) error {
	if m.ArchiveMemberFn != nil {
		return m.ArchiveMemberFn(ctx, listID, email)
	}
	return nil
}
func (m *MailingListClientMock) DefaultListID() string { return m.ListID }

// EmailServiceMock is a lightweight mock for EmailService
type EmailServiceMock struct {
	SendNewsletterFn func(ctx context.Context, sender *settings.Settings, n *newsletter.Newsletter, recipients []*subscriber.Subscriber) (int, error)
}

func (m *EmailServiceMock) SendNewsletter(ctx context.Context, sender *settings.Settings, n *newsletter.Newsletter, recipients []*subscriber.Subscriber) (int, error) {
	if m.SendNewsletterFn != nil {
		return m.SendNewsletterFn(ctx, sender, n, recipients)
	}
	return len(recipients), nil
}

// HealthCheckerMock reports a fixed result
type HealthCheckerMock struct {
	NameValue string
	Err       error
}

func (m *HealthCheckerMock) Name() string                    { return m.NameValue }
func (m *HealthCheckerMock) Check(ctx context.Context) error { return m.Err }
