package redis_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	config "github.com/avatarctic/newsletter-saas/configs"
	infraRedis "github.com/avatarctic/newsletter-saas/internal/infrastructure/redis"
)

func TestOptions(t *testing.T) {
	opts := infraRedis.Options(&config.RedisConfig{
		Host:        "cache",
		Port:        "6380",
		DB:          2,
		PoolSize:    7,
		DialTimeout: time.Second,
	})
	require.Equal(t, "cache:6380", opts.Addr)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, 7, opts.PoolSize)
	require.Equal(t, time.Second, opts.DialTimeout)
}
