package cachekeys_test

import (
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/analytics"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/cachekeys"
)

var uid = uuid.MustParse("11111111-2222-3333-4444-555555555555")

func TestSubResourceKeys(t *testing.T) {
	u := uid.String()
	require.Equal(t, "user:"+u+":settings", cachekeys.Settings(uid))
	require.Equal(t, "user:"+u+":subscriber:count", cachekeys.SubscriberCount(uid))
	require.Equal(t, "user:"+u+":newsletter:stats", cachekeys.NewsletterStats(uid))
	require.Equal(t, "user:"+u+":analytics:growth:30d", cachekeys.AnalyticsGrowth(uid, analytics.Period30Days))
	require.Equal(t, "user:"+u+":analytics:engagement", cachekeys.AnalyticsEngagement(uid))
	require.Equal(t, "user:"+u+":mailchimp:status", cachekeys.MailchimpStatus(uid))
}

func TestHTTPKey(t *testing.T) {
	require.Equal(t, "http:anonymous:/api/v1/x:{}", cachekeys.HTTP(uuid.Nil, "/api/v1/x", nil))

	q := url.Values{"status": {"subscribed"}, "tag": {"a", "b"}}
	require.Equal(t,
		`http:`+uid.String()+`:/api/v1/subscribers:{"status":"subscribed","tag":["a","b"]}`,
		cachekeys.HTTP(uid, "/api/v1/subscribers", q))
}

func TestQueryIsOrderIndependent(t *testing.T) {
	a, _ := url.ParseQuery("b=2&a=1")
	b, _ := url.ParseQuery("a=1&b=2")
	require.Equal(t, cachekeys.Query(a), cachekeys.Query(b))
}

func anyMatch(ms []ports.KeyMatcher, key string) bool {
	for _, m := range ms {
		if m.Match(key) {
			return true
		}
	}
	return false
}

func TestSubscriberWriteInvalidation(t *testing.T) {
	other := uuid.New()
	ms := cachekeys.SubscriberWrite(uid)

	require.True(t, anyMatch(ms, cachekeys.SubscriberList(uid, nil)))
	require.True(t, anyMatch(ms, cachekeys.GrowthResponse(uid, "30d")))
	require.True(t, anyMatch(ms, cachekeys.SubscriberCount(uid)))
	require.True(t, anyMatch(ms, cachekeys.AnalyticsGrowth(uid, analytics.Period7Days)))
	require.True(t, anyMatch(ms, cachekeys.HTTP(uid, "/api/v1/subscribers", url.Values{"page": {"2"}})))

	require.False(t, anyMatch(ms, cachekeys.SubscriberList(other, nil)))
	require.False(t, anyMatch(ms, cachekeys.SubscriberCount(other)))
	require.False(t, anyMatch(ms, cachekeys.Settings(uid)))
	require.False(t, anyMatch(ms, cachekeys.NewsletterList(uid, nil)))
}

func TestSettingsWriteInvalidation(t *testing.T) {
	ms := cachekeys.SettingsWrite(uid)
	require.True(t, anyMatch(ms, cachekeys.SettingsResponse(uid)))
	require.True(t, anyMatch(ms, cachekeys.Settings(uid)))
	require.True(t, anyMatch(ms, cachekeys.MailchimpStatus(uid)))
	require.False(t, anyMatch(ms, cachekeys.SubscriberCount(uid)))
	require.False(t, anyMatch(ms, cachekeys.MailchimpStatus(uuid.New())))
}

func TestTrackingEventInvalidation(t *testing.T) {
	ms := cachekeys.TrackingEvent(uid)
	require.True(t, anyMatch(ms, cachekeys.NewsletterStats(uid)))
	require.True(t, anyMatch(ms, cachekeys.AnalyticsEngagement(uid)))
	require.True(t, anyMatch(ms, cachekeys.HTTP(uid, "/api/v1/newsletters/stats", nil)))
	require.True(t, anyMatch(ms, cachekeys.HTTP(uid, "/api/v1/analytics/engagement", nil)))
	require.False(t, anyMatch(ms, cachekeys.NewsletterList(uid, nil)))
	require.False(t, anyMatch(ms, cachekeys.SubscriberCount(uid)))
}

func TestUserScope(t *testing.T) {
	ms := cachekeys.UserScope(uid)
	for _, k := range []string{
		cachekeys.Settings(uid),
		cachekeys.SettingsResponse(uid),
		cachekeys.NewsletterList(uid, nil),
		cachekeys.HTTP(uid, "/x", nil),
	} {
		require.True(t, anyMatch(ms, k), k)
	}
	require.False(t, anyMatch(ms, cachekeys.Settings(uuid.New())))
}
