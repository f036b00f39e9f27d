// Package ratelimit gates calls to a rate-limited third-party API with a
// sliding-window request cap combined with a concurrency cap. Callers over the
// limit are queued in FIFO order instead of being rejected.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/avatarctic/newsletter-saas/internal/core/ports"
)

// Config is the limiter contract: at most MaxRequests grants per Interval and
// at most Concurrency slots held at once.
type Config struct {
	MaxRequests int
	Interval    time.Duration
	Concurrency int
}

// DefaultConfig matches Mailchimp's documented 10 requests per second.
func DefaultConfig() Config {
	return Config{MaxRequests: 10, Interval: time.Second, Concurrency: 3}
}

// Stats is a snapshot of limiter state.
type Stats struct {
	Active   int `json:"active"`
	Queued   int `json:"queued"`
	InWindow int `json:"in_window"`
}

type waiter struct {
	ready   chan struct{}
	granted bool
	since   time.Time
}

// Limiter implements ports.OutboundLimiter. One instance exists per external target.
type Limiter struct {
	name   string
	cfg    Config
	logger *logrus.Logger

	mu         sync.Mutex
	timestamps []time.Time
	active     int
	queue      []*waiter
	timer      *time.Timer
	now        func() time.Time
}

var _ ports.OutboundLimiter = (*Limiter)(nil)

// New returns a limiter; non-positive config fields fall back to DefaultConfig.
func New(name string, cfg Config, logger *logrus.Logger) *Limiter {
	def := DefaultConfig()
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = def.MaxRequests
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	return &Limiter{name: name, cfg: cfg, logger: logger, now: time.Now}
}

// Acquire blocks until a slot is granted or ctx is done. A granted caller must
// call Release exactly once.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	now := l.now()
	l.pruneLocked(now)
	// Newcomers never overtake queued callers.
	if len(l.queue) == 0 && l.canGrantLocked() {
		l.grantLocked(now)
		l.mu.Unlock()
		limiterGrants.WithLabelValues(l.name).Inc()
		return nil
	}
	w := &waiter{ready: make(chan struct{}), since: now}
	l.queue = append(l.queue, w)
	queued := len(l.queue)
	l.scheduleLocked(now)
	l.mu.Unlock()

	limiterQueueLength.WithLabelValues(l.name).Set(float64(queued))
	if queued == l.cfg.MaxRequests+1 && l.logger != nil {
		l.logger.WithFields(logrus.Fields{
			"limiter":      l.name,
			"queue_length": queued,
			"max_requests": l.cfg.MaxRequests,
		}).Warn("rate limiter queue exceeds max requests per interval")
	}

	select {
	case <-w.ready:
		limiterGrants.WithLabelValues(l.name).Inc()
		limiterWait.WithLabelValues(l.name).Observe(time.Since(w.since).Seconds())
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		if w.granted {
			// Granted concurrently with cancellation: hand the slot back.
			l.active--
		} else {
			l.removeLocked(w)
		}
		l.dispatchLocked(l.now())
		l.mu.Unlock()
		return ctx.Err()
	}
}

// Release frees a concurrency slot and wakes the queue head if it can now proceed.
func (l *Limiter) Release() {
	l.mu.Lock()
	if l.active == 0 {
		l.mu.Unlock()
		if l.logger != nil {
			l.logger.WithField("limiter", l.name).Warn("rate limiter release without matching acquire")
		}
		return
	}
	l.active--
	l.dispatchLocked(l.now())
	l.mu.Unlock()
}

// Do runs fn while holding a slot. The slot is released even if fn panics.
func (l *Limiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}

// WithRateLimit runs fn under l and returns its result.
func WithRateLimit[T any](ctx context.Context, l ports.OutboundLimiter, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := l.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.now())
	return Stats{Active: l.active, Queued: len(l.queue), InWindow: len(l.timestamps)}
}

func (l *Limiter) Config() Config { return l.cfg }

// pruneLocked drops grants outside the window (now-Interval, now].
func (l *Limiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.cfg.Interval)
	i := 0
	for i < len(l.timestamps) && !l.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.timestamps = append(l.timestamps[:0], l.timestamps[i:]...)
	}
}

func (l *Limiter) canGrantLocked() bool {
	return len(l.timestamps) < l.cfg.MaxRequests && l.active < l.cfg.Concurrency
}

func (l *Limiter) grantLocked(now time.Time) {
	l.timestamps = append(l.timestamps, now)
	l.active++
}

// dispatchLocked grants from the head of the queue while the head can proceed.
// A blocked head blocks everyone behind it.
func (l *Limiter) dispatchLocked(now time.Time) {
	l.pruneLocked(now)
	for len(l.queue) > 0 && l.canGrantLocked() {
		w := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.grantLocked(now)
		w.granted = true
		close(w.ready)
	}
	limiterQueueLength.WithLabelValues(l.name).Set(float64(len(l.queue)))
	l.scheduleLocked(now)
}

// scheduleLocked arms a timer when queued callers wait only on the window,
// since no Release will arrive to wake them.
func (l *Limiter) scheduleLocked(now time.Time) {
	if len(l.queue) == 0 || l.timer != nil {
		return
	}
	if l.active >= l.cfg.Concurrency || len(l.timestamps) < l.cfg.MaxRequests {
		return
	}
	d := l.timestamps[0].Add(l.cfg.Interval).Sub(now)
	if d < 0 {
		d = 0
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.timer == t {
			l.timer = nil
		}
		l.dispatchLocked(l.now())
	})
	l.timer = t
}

func (l *Limiter) removeLocked(w *waiter) {
	for i, q := range l.queue {
		if q == w {
			copy(l.queue[i:], l.queue[i+1:])
			l.queue[len(l.queue)-1] = nil
			l.queue = l.queue[:len(l.queue)-1]
			return
		}
	}
}
