// Package retry re-runs fallible operations with exponential backoff.
// It is independent of the rate limiter; callers nest the two.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrRetryExhausted wraps the last error once every attempt has failed.
var ErrRetryExhausted = errors.New("retry exhausted")

// Config is the backoff contract. Delays before attempts 2, 3, ... are
// Delay, Delay*BackoffFactor, Delay*BackoffFactor^2, ...
type Config struct {
	MaxAttempts   int
	Delay         time.Duration
	BackoffFactor float64
}

// DefaultConfig waits 1s then 2s, then fails.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, Delay: time.Second, BackoffFactor: 2}
}

// Policy applies a Config. It holds no per-call state and is safe for concurrent use.
type Policy struct {
	cfg       Config
	name      string
	retryable func(error) bool
	logger    *logrus.Logger
	wait      func(ctx context.Context, d time.Duration) error
}

type Option func(*Policy)

// WithRetryable overrides which errors are retried. Errors it rejects are
// returned immediately without wrapping.
func WithRetryable(fn func(error) bool) Option {
	return func(p *Policy) {
		if fn != nil {
			p.retryable = fn
		}
	}
}

// WithName labels logs and metrics.
func WithName(name string) Option {
	return func(p *Policy) { p.name = name }
}

func New(cfg Config, logger *logrus.Logger, opts ...Option) *Policy {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = 1
	}
	p := &Policy{
		cfg:       cfg,
		name:      "default",
		retryable: DefaultRetryable,
		logger:    logger,
		wait:      sleep,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// DefaultRetryable retries everything except context cancellation.
func DefaultRetryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (p *Policy) Config() Config { return p.cfg }

// Run calls fn until it succeeds, fails with a non-retryable error, ctx is
// done during a backoff wait, or MaxAttempts is reached. In the last case the
// returned error wraps both ErrRetryExhausted and the last error.
func (p *Policy) Run(ctx context.Context, fn func(context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Do is Run for operations that return a value.
func Do[T any](ctx context.Context, p *Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	delay := p.cfg.Delay
	var lastErr error

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			if attempt > 1 && p.logger != nil {
				p.logger.WithFields(logrus.Fields{"policy": p.name, "attempt": attempt}).Info("operation succeeded after retry")
			}
			return result, nil
		}
		lastErr = err

		// Caller cancelled. err alone cannot tell this apart from a per-request timeout.
		if ctx.Err() != nil {
			return zero, err
		}
		if !p.retryable(err) {
			return zero, err
		}
		if attempt == p.cfg.MaxAttempts {
			break
		}

		retryAttempts.WithLabelValues(p.name).Inc()
		if p.logger != nil {
			p.logger.WithFields(logrus.Fields{
				"policy":  p.name,
				"attempt": attempt,
				"backoff": delay.String(),
			}).WithError(err).Warn("attempt failed, retrying")
		}
		if werr := p.wait(ctx, delay); werr != nil {
			return zero, werr
		}
		delay = time.Duration(float64(delay) * p.cfg.BackoffFactor)
	}

	retryExhausted.WithLabelValues(p.name).Inc()
	if p.logger != nil {
		p.logger.WithFields(logrus.Fields{"policy": p.name, "attempts": p.cfg.MaxAttempts}).WithError(lastErr).Error("retry attempts exhausted")
	}
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, p.cfg.MaxAttempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
