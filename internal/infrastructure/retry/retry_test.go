package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func recordingPolicy(cfg Config, opts ...Option) (*Policy, *[]time.Duration) {
	p := New(cfg, nil, opts...)
	var waits []time.Duration
	p.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return p, &waits
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	p, waits := recordingPolicy(DefaultConfig())
	calls := 0
	v, err := Do(context.Background(), p, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", v)
	require.Equal(t, 1, calls)
	require.Empty(t, *waits)
}

func TestDo_RetryThenSuccess(t *testing.T) {
	p, waits := recordingPolicy(Config{MaxAttempts: 3, Delay: time.Second, BackoffFactor: 2})
	calls := 0
	v, err := Do(context.Background(), p, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", v)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestDo_BackoffSchedule(t *testing.T) {
	p, waits := recordingPolicy(Config{MaxAttempts: 5, Delay: 100 * time.Millisecond, BackoffFactor: 3})
	_ = p.Run(context.Background(), func(context.Context) error { return errors.New("x") })
	require.Equal(t, []time.Duration{
		100 * time.Millisecond,
		300 * time.Millisecond,
		900 * time.Millisecond,
		2700 * time.Millisecond,
	}, *waits)
}

func TestDo_Exhausted(t *testing.T) {
	p, _ := recordingPolicy(DefaultConfig())
	last := errors.New("upstream 503")
	calls := 0
	err := p.Run(context.Background(), func(context.Context) error {
		calls++
		return last
	})
	require.Equal(t, 3, calls)
	require.ErrorIs(t, err, ErrRetryExhausted)
	require.ErrorIs(t, err, last)
	require.Contains(t, err.Error(), "3 attempts")
	require.Contains(t, err.Error(), "upstream 503")
}

func TestDo_NonRetryableReturnsImmediately(t *testing.T) {
	permanent := errors.New("bad request")
	p, waits := recordingPolicy(DefaultConfig(), WithRetryable(func(err error) bool {
		return !errors.Is(err, permanent)
	}))
	calls := 0
	err := p.Run(context.Background(), func(context.Context) error {
		calls++
		return permanent
	})
	require.Equal(t, 1, calls)
	require.Same(t, permanent, err)
	require.Empty(t, *waits)
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	p := New(Config{MaxAttempts: 3, Delay: time.Hour, BackoffFactor: 2}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, func(context.Context) error {
			calls++
			return errors.New("x")
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDo_ContextErrorNotRetriedByDefault(t *testing.T) {
	p, _ := recordingPolicy(DefaultConfig())
	calls := 0
	err := p.Run(context.Background(), func(context.Context) error {
		calls++
		return context.DeadlineExceeded
	})
	require.Equal(t, 1, calls)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotErrorIs(t, err, ErrRetryExhausted)
}

func TestDo_CallerCancelStopsRetries(t *testing.T) {
	p, waits := recordingPolicy(DefaultConfig(), WithRetryable(func(error) bool { return true }))
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := p.Run(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("connection reset")
	})
	require.Equal(t, 1, calls)
	require.EqualError(t, err, "connection reset")
	require.NotErrorIs(t, err, ErrRetryExhausted)
	require.Empty(t, *waits)
}

func TestNew_NormalizesConfig(t *testing.T) {
	p := New(Config{}, nil)
	require.Equal(t, 1, p.Config().MaxAttempts)
	calls := 0
	err := p.Run(context.Background(), func(context.Context) error { calls++; return errors.New("x") })
	require.ErrorIs(t, err, ErrRetryExhausted)
	require.Equal(t, 1, calls)
}

func TestSleep_RealTimer(t *testing.T) {
	start := time.Now()
	require.NoError(t, sleep(context.Background(), 5*time.Millisecond))
	require.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}
