// Package cachekeys names every key the service stores in the expiring cache
// and the invalidation tables that evict them after writes.
package cachekeys

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/analytics"
)

const anonymous = "anonymous"

// Sub-resource keys used with GetOrSet by services.

func Settings(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:settings", userID)
}

func SubscriberCount(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:subscriber:count", userID)
}

func NewsletterStats(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:newsletter:stats", userID)
}

func AnalyticsGrowth(userID uuid.UUID, period analytics.Period) string {
	return fmt.Sprintf("user:%s:analytics:growth:%s", userID, period)
}

func AnalyticsEngagement(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:analytics:engagement", userID)
}

func MailchimpStatus(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:mailchimp:status", userID)
}

// UserLabel renders a user id for HTTP keys; the zero id is "anonymous".
func UserLabel(userID uuid.UUID) string {
	if userID == uuid.Nil {
		return anonymous
	}
	return userID.String()
}

// Query serializes query parameters as a JSON object. A parameter given once
// maps to a string, a repeated one to an array. Object keys are sorted, so
// equal parameter sets always produce the same key.
func Query(values url.Values) string {
	if len(values) == 0 {
		return "{}"
	}
	m := make(map[string]any, len(values))
	for k, vs := range values {
		switch len(vs) {
		case 0:
			m[k] = ""
		case 1:
			m[k] = vs[0]
		default:
			m[k] = vs
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// HTTP is the default response-cache key: http:{user|anonymous}:{path}:{query}.
func HTTP(userID uuid.UUID, path string, query url.Values) string {
	return "http:" + UserLabel(userID) + ":" + path + ":" + Query(query)
}

// Named response-cache keys per resource.

func SubscriberList(userID uuid.UUID, query url.Values) string {
	return "subscribers:" + UserLabel(userID) + ":" + Query(query)
}

func NewsletterList(userID uuid.UUID, query url.Values) string {
	return "newsletters:" + UserLabel(userID) + ":" + Query(query)
}

func GrowthResponse(userID uuid.UUID, period string) string {
	return "analytics:" + UserLabel(userID) + ":growth:" + period
}

func SettingsResponse(userID uuid.UUID) string {
	return "settings:" + UserLabel(userID)
}
