package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/newsletter"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/settings"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/subscriber"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/cachekeys"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/expiring"
)

// Utility helpers
func invalidate(c ports.ExpiringCache, keys ...string) {
	if c == nil {
		return
	}
	for _, k := range keys {
		c.Delete(k)
	}
}

// CachingSubscriberRepository decorates a SubscriberRepository with a
// read-through cache of the subscribed count.
type CachingSubscriberRepository struct {
	ports.SubscriberRepository
	cache ports.ExpiringCache
	ttl   time.Duration
}

func NewCachingSubscriberRepository(inner ports.SubscriberRepository, cache ports.ExpiringCache, ttl time.Duration) ports.SubscriberRepository {
	return &CachingSubscriberRepository{SubscriberRepository: inner, cache: cache, ttl: ttl}
}

func (c *CachingSubscriberRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	return expiring.GetOrSetAs(ctx, c.cache, cachekeys.SubscriberCount(userID), c.ttl, func(ctx context.Context) (int, error) {
		return c.SubscriberRepository.Count(ctx, userID)
	})
}

func (c *CachingSubscriberRepository) Create(ctx context.Context, s *subscriber.Subscriber) error {
	if err := c.SubscriberRepository.Create(ctx, s); err != nil {
		return err
	}
	invalidate(c.cache, cachekeys.SubscriberCount(s.UserID))
	return nil
}

func (c *CachingSubscriberRepository) Update(ctx context.Context, s *subscriber.Subscriber) error {
	if err := c.SubscriberRepository.Update(ctx, s); err != nil {
		return err
	}
	// status changes move the subscribed count
	invalidate(c.cache, cachekeys.SubscriberCount(s.UserID))
	return nil
}

func (c *CachingSubscriberRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := c.SubscriberRepository.Delete(ctx, userID, id); err != nil {
		return err
	}
	invalidate(c.cache, cachekeys.SubscriberCount(userID))
	return nil
}

// CachingNewsletterRepository caches the per-user aggregate stats.
type CachingNewsletterRepository struct {
	ports.NewsletterRepository
	cache ports.ExpiringCache
	ttl   time.Duration
}

func NewCachingNewsletterRepository(inner ports.NewsletterRepository, cache ports.ExpiringCache, ttl time.Duration) ports.NewsletterRepository {
	return &CachingNewsletterRepository{NewsletterRepository: inner, cache: cache, ttl: ttl}
}

func (c *CachingNewsletterRepository) Stats(ctx context.Context, userID uuid.UUID) (*newsletter.Stats, error) {
	return expiring.GetOrSetAs(ctx, c.cache, cachekeys.NewsletterStats(userID), c.ttl, func(ctx context.Context) (*newsletter.Stats, error) {
		return c.NewsletterRepository.Stats(ctx, userID)
	})
}

func (c *CachingNewsletterRepository) Create(ctx context.Context, n *newsletter.Newsletter) error {
	if err := c.NewsletterRepository.Create(ctx, n); err != nil {
		return err
	}
	invalidate(c.cache, cachekeys.NewsletterStats(n.UserID))
	return nil
}

func (c *CachingNewsletterRepository) Update(ctx context.Context, n *newsletter.Newsletter) error {
	if err := c.NewsletterRepository.Update(ctx, n); err != nil {
		return err
	}
	invalidate(c.cache, cachekeys.NewsletterStats(n.UserID), cachekeys.AnalyticsEngagement(n.UserID))
	return nil
}

func (c *CachingNewsletterRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := c.NewsletterRepository.Delete(ctx, userID, id); err != nil {
		return err
	}
	invalidate(c.cache, cachekeys.NewsletterStats(userID), cachekeys.AnalyticsEngagement(userID))
	return nil
}

// CachingSettingsRepository caches settings reads and overwrites on upsert.
type CachingSettingsRepository struct {
	inner ports.SettingsRepository
	cache ports.ExpiringCache
	ttl   time.Duration
}

func NewCachingSettingsRepository(inner ports.SettingsRepository, cache ports.ExpiringCache, ttl time.Duration) ports.SettingsRepository {
	return &CachingSettingsRepository{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachingSettingsRepository) Get(ctx context.Context, userID uuid.UUID) (*settings.Settings, error) {
	s, err := expiring.GetOrSetAs(ctx, c.cache, cachekeys.Settings(userID), c.ttl, func(ctx context.Context) (*settings.Settings, error) {
		return c.inner.Get(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	cp := *s
	return &cp, nil
}

func (c *CachingSettingsRepository) Upsert(ctx context.Context, s *settings.Settings) error {
	if err := c.inner.Upsert(ctx, s); err != nil {
		return err
	}
	if c.cache != nil {
		cp := *s
		c.cache.Set(cachekeys.Settings(s.UserID), &cp, c.ttl)
	}
	return nil
}
