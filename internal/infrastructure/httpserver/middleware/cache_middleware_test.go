package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/cachekeys"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/expiring"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/helpers"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/middleware"
	tmocks "github.com/avatarctic/newsletter-saas/test/mocks"
)

func newCache(t *testing.T) *expiring.Cache {
	t.Helper()
	c := expiring.New(expiring.Config{SweepInterval: -1}, nil)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCached_MissThenHit(t *testing.T) {
	e := echo.New()
	m := middleware.NewCacheMiddleware(newCache(t), time.Minute, nil)
	calls := 0
	e.GET("/items", m.Cached(middleware.CacheOptions{}, func(c echo.Context) (int, any, error) {
		calls++
		return http.StatusOK, map[string]int{"calls": calls}, nil
	}))

	rec := serve(e, http.MethodGet, "/items?page=1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, middleware.CacheMiss, rec.Header().Get(middleware.HeaderXCache))
	require.JSONEq(t, `{"calls":1}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/items?page=1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, middleware.CacheHit, rec.Header().Get(middleware.HeaderXCache))
	require.JSONEq(t, `{"calls":1}`, rec.Body.String())
	require.Equal(t, 1, calls)

	// different query, different key
	rec = serve(e, http.MethodGet, "/items?page=2")
	require.Equal(t, middleware.CacheMiss, rec.Header().Get(middleware.HeaderXCache))
	require.Equal(t, 2, calls)
}

func TestCached_PreservesStatus(t *testing.T) {
	e := echo.New()
	m := middleware.NewCacheMiddleware(newCache(t), time.Minute, nil)
	e.GET("/accepted", m.Cached(middleware.CacheOptions{}, func(c echo.Context) (int, any, error) {
		return http.StatusAccepted, map[string]string{"ok": "yes"}, nil
	}))
	serve(e, http.MethodGet, "/accepted")
	rec := serve(e, http.MethodGet, "/accepted")
	require.Equal(t, middleware.CacheHit, rec.Header().Get(middleware.HeaderXCache))
	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestCached_ErrorStatusNotCachedByDefault(t *testing.T) {
	e := echo.New()
	m := middleware.NewCacheMiddleware(newCache(t), time.Minute, nil)
	calls := 0
	e.GET("/flaky", m.Cached(middleware.CacheOptions{}, func(c echo.Context) (int, any, error) {
		calls++
		return http.StatusServiceUnavailable, map[string]string{"error": "down"}, nil
	}))
	serve(e, http.MethodGet, "/flaky")
	rec := serve(e, http.MethodGet, "/flaky")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, middleware.CacheMiss, rec.Header().Get(middleware.HeaderXCache))
	require.Equal(t, 2, calls)
}

func TestCached_CacheableOverride(t *testing.T) {
	e := echo.New()
	m := middleware.NewCacheMiddleware(newCache(t), time.Minute, nil)
	calls := 0
	opts := middleware.CacheOptions{Cacheable: func(int) bool { return true }}
	e.GET("/missing", m.Cached(opts, func(c echo.Context) (int, any, error) {
		calls++
		return http.StatusNotFound, map[string]string{"error": "nope"}, nil
	}))
	serve(e, http.MethodGet, "/missing")
	rec := serve(e, http.MethodGet, "/missing")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, middleware.CacheHit, rec.Header().Get(middleware.HeaderXCache))
	require.Equal(t, 1, calls)
}

func TestCached_HandlerErrorNotCached(t *testing.T) {
	e := echo.New()
	cache := newCache(t)
	m := middleware.NewCacheMiddleware(cache, time.Minute, nil)
	e.GET("/boom", m.Cached(middleware.CacheOptions{}, func(c echo.Context) (int, any, error) {
		return 0, nil, echo.NewHTTPError(http.StatusInternalServerError, "boom")
	}))
	rec := serve(e, http.MethodGet, "/boom")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 0, cache.Stats().TotalEntries)
}

func TestCached_ConditionBypasses(t *testing.T) {
	e := echo.New()
	m := middleware.NewCacheMiddleware(newCache(t), time.Minute, nil)
	calls := 0
	opts := middleware.CacheOptions{Condition: func(c echo.Context) bool { return c.QueryParam("fresh") == "" }}
	e.GET("/c", m.Cached(opts, func(c echo.Context) (int, any, error) {
		calls++
		return http.StatusOK, calls, nil
	}))
	serve(e, http.MethodGet, "/c?fresh=1")
	rec := serve(e, http.MethodGet, "/c?fresh=1")
	require.Empty(t, rec.Header().Get(middleware.HeaderXCache))
	require.Equal(t, 2, calls)
}

func TestCached_NonGetPassesThrough(t *testing.T) {
	e := echo.New()
	cache := newCache(t)
	m := middleware.NewCacheMiddleware(cache, time.Minute, nil)
	h := m.Cached(middleware.CacheOptions{}, func(c echo.Context) (int, any, error) {
		return http.StatusCreated, map[string]string{"id": "1"}, nil
	})
	e.POST("/c", h)
	rec := serve(e, http.MethodPost, "/c")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Empty(t, rec.Header().Get(middleware.HeaderXCache))
	require.Equal(t, 0, cache.Stats().TotalEntries)
}

func TestCached_TTLExpiry(t *testing.T) {
	e := echo.New()
	m := middleware.NewCacheMiddleware(newCache(t), time.Minute, nil)
	calls := 0
	e.GET("/t", m.Cached(middleware.CacheOptions{TTL: 20 * time.Millisecond}, func(c echo.Context) (int, any, error) {
		calls++
		return http.StatusOK, calls, nil
	}))
	serve(e, http.MethodGet, "/t")
	time.Sleep(30 * time.Millisecond)
	rec := serve(e, http.MethodGet, "/t")
	require.Equal(t, middleware.CacheMiss, rec.Header().Get(middleware.HeaderXCache))
	require.Equal(t, 2, calls)
}

func TestCached_DefaultKeyUsesUserAndQuery(t *testing.T) {
	e := echo.New()
	cache := newCache(t)
	m := middleware.NewCacheMiddleware(cache, time.Minute, nil)
	uid := uuid.New()
	withUser := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.QueryParam("as") == "user" {
				helpers.SetUserID(c, uid)
			}
			return next(c)
		}
	}
	e.GET("/api/v1/things", m.Cached(middleware.CacheOptions{}, func(c echo.Context) (int, any, error) {
		return http.StatusOK, "x", nil
	}), withUser)

	serve(e, http.MethodGet, "/api/v1/things?as=user")
	serve(e, http.MethodGet, "/api/v1/things")
	require.True(t, cache.Has(`http:`+uid.String()+`:/api/v1/things:{"as":"user"}`))
	require.True(t, cache.Has(`http:anonymous:/api/v1/things:{}`))
}

func TestInvalidate_AfterSuccessfulWrite(t *testing.T) {
	e := echo.New()
	cache := newCache(t)
	m := middleware.NewCacheMiddleware(cache, time.Minute, nil)
	cache.Set("settings:u1", map[string]int{"a": 1}, time.Minute)
	cache.Set("subscribers:u1:{}", 1, time.Minute)

	e.PUT("/settings", func(c echo.Context) error {
		return c.JSON(http.StatusOK, "ok")
	}, m.Invalidate(middleware.Patterns("^settings:u1$")))

	rec := serve(e, http.MethodPut, "/settings")
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, cache.Has("settings:u1"))
	require.True(t, cache.Has("subscribers:u1:{}"))
}

func TestInvalidate_SkippedOnFailedWrite(t *testing.T) {
	e := echo.New()
	rc := &tmocks.RecordingCache{ExpiringCache: newCache(t)}
	m := middleware.NewCacheMiddleware(rc, time.Minute, nil)
	rc.Set("settings:u1", 1, time.Minute)

	e.PUT("/status500", func(c echo.Context) error {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db down"})
	}, m.Invalidate(middleware.Patterns("settings:u1")))
	e.PUT("/err", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad")
	}, m.Invalidate(middleware.Patterns("settings:u1")))

	require.Equal(t, http.StatusInternalServerError, serve(e, http.MethodPut, "/status500").Code)
	require.Equal(t, http.StatusBadRequest, serve(e, http.MethodPut, "/err").Code)
	require.Equal(t, 0, rc.Invalidations())
	require.True(t, rc.Has("settings:u1"))
}

func TestInvalidate_IgnoresSafeMethods(t *testing.T) {
	e := echo.New()
	rc := &tmocks.RecordingCache{ExpiringCache: newCache(t)}
	m := middleware.NewCacheMiddleware(rc, time.Minute, nil)
	e.GET("/g", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, m.Invalidate(middleware.Patterns(".*")))
	serve(e, http.MethodGet, "/g")
	require.Equal(t, 0, rc.Invalidations())
}

func TestInvalidate_PanicInTableDoesNotFailWrite(t *testing.T) {
	e := echo.New()
	m := middleware.NewCacheMiddleware(newCache(t), time.Minute, nil)
	e.DELETE("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		m.Invalidate(func(echo.Context) []ports.KeyMatcher { panic("table bug") }))
	require.Equal(t, http.StatusNoContent, serve(e, http.MethodDelete, "/x").Code)
}

func TestInvalidate_PatternFuncSkipsMalformed(t *testing.T) {
	e := echo.New()
	cache := newCache(t)
	m := middleware.NewCacheMiddleware(cache, time.Minute, nil)
	cache.Set("newsletters:u1:{}", 1, time.Minute)
	e.POST("/n", func(c echo.Context) error { return c.NoContent(http.StatusCreated) },
		m.Invalidate(m.PatternFunc(func(echo.Context) []string { return []string{"([", "^newsletters:u1:"} })))
	require.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/n").Code)
	require.False(t, cache.Has("newsletters:u1:{}"))
}

func TestInvalidate_ForUserTable(t *testing.T) {
	e := echo.New()
	cache := newCache(t)
	m := middleware.NewCacheMiddleware(cache, time.Minute, nil)
	uid := uuid.New()
	other := uuid.New()
	cache.Set(cachekeys.SubscriberList(uid, nil), 1, time.Minute)
	cache.Set(cachekeys.SubscriberCount(uid), 1, time.Minute)
	cache.Set(cachekeys.SubscriberList(other, nil), 1, time.Minute)

	e.POST("/subscribers", func(c echo.Context) error { return c.NoContent(http.StatusCreated) },
		func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { helpers.SetUserID(c, uid); return next(c) }
		},
		m.Invalidate(middleware.ForUser(cachekeys.SubscriberWrite)))

	serve(e, http.MethodPost, "/subscribers")
	require.False(t, cache.Has(cachekeys.SubscriberList(uid, nil)))
	require.False(t, cache.Has(cachekeys.SubscriberCount(uid)))
	require.True(t, cache.Has(cachekeys.SubscriberList(other, nil)))
}
