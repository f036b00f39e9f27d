package health

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	infraDB "github.com/avatarctic/newsletter-saas/internal/infrastructure/db"
)

// dbHealthChecker wraps the database for health checks.
type dbHealthChecker struct{ db *infraDB.Database }

func (d *dbHealthChecker) Name() string                    { return "database" }
func (d *dbHealthChecker) Check(ctx context.Context) error { return d.db.DB.PingContext(ctx) }

// redisHealthChecker wraps the redis client for health checks.
type redisHealthChecker struct{ client *redis.Client }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// pinger is satisfied by the marketing-list client.
type pinger interface {
	Ping(ctx context.Context) error
}

// mailchimpHealthChecker pings the list API. The call goes through the
// shared outbound limiter like any other request.
type mailchimpHealthChecker struct{ client pinger }

func (m *mailchimpHealthChecker) Name() string                    { return "mailchimp" }
func (m *mailchimpHealthChecker) Check(ctx context.Context) error { return m.client.Ping(ctx) }

// NewDBHealthChecker creates a health checker for the database.
func NewDBHealthChecker(db *infraDB.Database) ports.HealthChecker { return &dbHealthChecker{db: db} }

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client *redis.Client) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

// NewMailchimpHealthChecker creates a health checker for the marketing-list API.
func NewMailchimpHealthChecker(client ports.MailingListClient) ports.HealthChecker {
	return &mailchimpHealthChecker{client: client}
}
