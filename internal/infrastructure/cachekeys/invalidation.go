package cachekeys

import (
	"github.com/google/uuid"

	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/expiring"
)

// Invalidation tables: the keys a successful write makes stale.

// SubscriberWrite covers subscriber create/update/delete/import.
func SubscriberWrite(userID uuid.UUID) []ports.KeyMatcher {
	u := UserLabel(userID)
	return []ports.KeyMatcher{
		expiring.Prefix("subscribers:" + u + ":"),
		expiring.Prefix("analytics:" + u + ":"),
		expiring.Prefix("http:" + u + ":/api/v1/subscribers"),
		expiring.Prefix("http:" + u + ":/api/v1/analytics"),
		expiring.Exact(SubscriberCount(userID)),
		expiring.Prefix("user:" + u + ":analytics:"),
	}
}

// NewsletterWrite covers newsletter create/update/delete/schedule/send.
func NewsletterWrite(userID uuid.UUID) []ports.KeyMatcher {
	u := UserLabel(userID)
	return []ports.KeyMatcher{
		expiring.Prefix("newsletters:" + u + ":"),
		expiring.Prefix("analytics:" + u + ":"),
		expiring.Prefix("http:" + u + ":/api/v1/newsletters"),
		expiring.Prefix("http:" + u + ":/api/v1/analytics"),
		expiring.Exact(NewsletterStats(userID)),
		expiring.Exact(AnalyticsEngagement(userID)),
	}
}

// SettingsWrite covers settings updates.
func SettingsWrite(userID uuid.UUID) []ports.KeyMatcher {
	u := UserLabel(userID)
	return []ports.KeyMatcher{
		expiring.Exact(SettingsResponse(userID)),
		expiring.Prefix("http:" + u + ":/api/v1/settings"),
		expiring.Exact(Settings(userID)),
		expiring.Exact(MailchimpStatus(userID)),
		expiring.Prefix("http:" + u + ":/api/v1/mailchimp/status"),
	}
}

// MailchimpSync covers a list sync, which changes sync flags on subscribers.
func MailchimpSync(userID uuid.UUID) []ports.KeyMatcher {
	u := UserLabel(userID)
	return []ports.KeyMatcher{
		expiring.Exact(MailchimpStatus(userID)),
		expiring.Prefix("subscribers:" + u + ":"),
		expiring.Prefix("http:" + u + ":/api/v1/subscribers"),
		expiring.Prefix("http:" + u + ":/api/v1/mailchimp"),
	}
}

// TrackingEvent covers open/click recording, which only moves engagement numbers.
func TrackingEvent(userID uuid.UUID) []ports.KeyMatcher {
	u := UserLabel(userID)
	return []ports.KeyMatcher{
		expiring.Exact(AnalyticsEngagement(userID)),
		expiring.Exact(NewsletterStats(userID)),
		expiring.Prefix("http:" + u + ":/api/v1/analytics/engagement"),
		expiring.Prefix("http:" + u + ":/api/v1/newsletters/stats"),
	}
}

// UserScope matches every key owned by the user.
func UserScope(userID uuid.UUID) []ports.KeyMatcher {
	u := UserLabel(userID)
	prefixes := []string{"user:", "http:", "subscribers:", "newsletters:", "analytics:"}
	out := make([]ports.KeyMatcher, 0, len(prefixes)+1)
	for _, p := range prefixes {
		out = append(out, expiring.Prefix(p+u+":"))
	}
	return append(out, expiring.Exact(SettingsResponse(userID)))
}
