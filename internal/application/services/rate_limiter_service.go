package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/avatarctic/newsletter-saas/internal/core/ports"
)

// RateLimiterService limits inbound API requests per user with a Redis fixed
// window. When Redis is unavailable it falls back to an in-process token
// bucket per user, so a Redis outage degrades limits to per-instance instead
// of removing them.
type RateLimiterService struct {
	repo            ports.RateLimitRepository
	limit           int
	burstMultiplier float64
	window          time.Duration
	keyPrefix       string
	logger          *logrus.Logger

	now func() time.Time

	mu        sync.Mutex
	fallback  map[uuid.UUID]*fallbackBucket
	lastPrune time.Time
}

type fallbackBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiterConfig groups configuration parameters for the rate limiter.
type RateLimiterConfig struct {
	DefaultRequestsPerMinute int
	BurstMultiplier          float64
	Window                   time.Duration
	KeyPrefix                string
}

var _ ports.RateLimiterService = (*RateLimiterService)(nil)

func NewRateLimiterService(repo ports.RateLimitRepository, cfg *RateLimiterConfig, logger *logrus.Logger) *RateLimiterService {
	// Apply defaults
	dl := 120
	bm := 2.0
	w := time.Minute
	kp := "ratelimit:user"
	if cfg != nil {
		if cfg.DefaultRequestsPerMinute > 0 {
			dl = cfg.DefaultRequestsPerMinute
		}
		if cfg.BurstMultiplier > 0 {
			bm = cfg.BurstMultiplier
		}
		if cfg.Window > 0 {
			w = cfg.Window
		}
		if cfg.KeyPrefix != "" {
			kp = cfg.KeyPrefix
		}
	}
	return &RateLimiterService{
		repo:            repo,
		limit:           dl,
		burstMultiplier: bm,
		window:          w,
		keyPrefix:       kp,
		logger:          logger,
		now:             time.Now,
		fallback:        make(map[uuid.UUID]*fallbackBucket),
	}
}

func (s *RateLimiterService) burst() int {
	return max(int(float64(s.limit)*s.burstMultiplier), 1)
}

func (s *RateLimiterService) Allow(ctx context.Context, userID uuid.UUID) (bool, int, int, time.Time, error) {
	burst := s.burst()
	if s.repo == nil {
		allowed, remaining, reset := s.allowLocal(userID)
		return allowed, remaining, s.limit, reset, nil
	}
	ttl := s.window * 2 // retain overlap window
	count, windowStart, err := s.repo.IncrementWindow(ctx, userID, s.window, s.keyPrefix, ttl)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": userID}).WithError(err).Warn("rate limiter: redis unavailable, using local limiter")
		}
		allowed, remaining, reset := s.allowLocal(userID)
		return allowed, remaining, s.limit, reset, err
	}
	reset := windowStart.Add(s.window)
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": userID, "count": count, "burst": burst, "limit": s.limit}).Debug("rate limiter window state")
	}
	if count > burst {
		return false, 0, s.limit, reset, nil
	}
	return true, burst - count, s.limit, reset, nil
}

// allowLocal consumes from the user's token bucket, refilled at limit per window.
func (s *RateLimiterService) allowLocal(userID uuid.UUID) (bool, int, time.Time) {
	now := s.now()
	s.mu.Lock()
	s.pruneLocked(now)
	b, ok := s.fallback[userID]
	if !ok {
		b = &fallbackBucket{lim: rate.NewLimiter(rate.Every(s.window/time.Duration(s.limit)), s.burst())}
		s.fallback[userID] = b
	}
	b.lastSeen = now
	s.mu.Unlock()

	allowed := b.lim.AllowN(now, 1)
	remaining := max(int(b.lim.TokensAt(now)), 0)
	return allowed, remaining, now.Add(s.window)
}

// refillTime is how long an untouched bucket takes to become full again.
func (s *RateLimiterService) refillTime() time.Duration {
	return max(s.window*time.Duration(s.burst())/time.Duration(s.limit), s.window)
}

// pruneLocked drops buckets idle for at least refillTime, at most once per
// window. A dropped bucket would have been full, so recreating it is
// indistinguishable from keeping it.
func (s *RateLimiterService) pruneLocked(now time.Time) {
	if now.Sub(s.lastPrune) < s.window {
		return
	}
	s.lastPrune = now
	idle := s.refillTime()
	removed := 0
	for id, b := range s.fallback {
		if now.Sub(b.lastSeen) >= idle {
			delete(s.fallback, id)
			removed++
		}
	}
	if removed > 0 && s.logger != nil {
		s.logger.WithFields(logrus.Fields{"removed": removed, "remaining": len(s.fallback)}).Debug("rate limiter: pruned idle local buckets")
	}
}
