package configs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avatarctic/newsletter-saas/configs"
)

func TestLoad_RequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SENDGRID_API_KEY", "key")
	_, err := configs.Load()
	require.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("SENDGRID_API_KEY", "k")
	t.Setenv("MAILCHIMP_RATE_MAX_REQUESTS", "5")
	t.Setenv("RETRY_DELAY", "250ms")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CACHE_COALESCE_MISSES", "true")
	t.Setenv("MAILCHIMP_CONCURRENCY", "not-a-number")

	cfg, err := configs.Load()
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Mailchimp.MaxRequests)
	require.Equal(t, time.Second, cfg.Mailchimp.Interval)
	require.Equal(t, 3, cfg.Mailchimp.Concurrency)
	require.Equal(t, 250*time.Millisecond, cfg.Retry.Delay)
	require.Equal(t, 3, cfg.Retry.MaxAttempts)
	require.Equal(t, 2.0, cfg.Retry.BackoffFactor)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	require.True(t, cfg.Cache.CoalesceMisses)
	require.Equal(t, 5*time.Minute, cfg.Cache.HTTPTTL)
	require.Contains(t, cfg.Database.DSN, "dbname=newsletter_db")
}
