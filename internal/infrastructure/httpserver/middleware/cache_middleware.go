package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/cachekeys"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/expiring"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/helpers"
)

const (
	HeaderXCache = "X-Cache"
	CacheHit     = "HIT"
	CacheMiss    = "MISS"
)

// DefaultHTTPCacheTTL applies when CacheOptions.TTL is zero.
const DefaultHTTPCacheTTL = 5 * time.Minute

// JSONHandler returns a status and a JSON-serializable body instead of writing
// the response itself, so the cache layer can store the result before it is sent.
type JSONHandler func(c echo.Context) (status int, body any, err error)

// CachedResponse is the stored envelope for one GET response.
type CachedResponse struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type CacheOptions struct {
	TTL time.Duration
	// KeyGenerator defaults to http:{user|anonymous}:{path}:{query}.
	KeyGenerator func(c echo.Context) string
	// Condition returning false bypasses the cache for the request.
	Condition func(c echo.Context) bool
	// Cacheable decides which statuses are stored; defaults to 2xx.
	Cacheable func(status int) bool
}

// InvalidationFunc resolves the keys a successful write makes stale.
type InvalidationFunc func(c echo.Context) []ports.KeyMatcher

type CacheMiddleware struct {
	cache  ports.ExpiringCache
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCacheMiddleware(cache ports.ExpiringCache, ttl time.Duration, logger *logrus.Logger) *CacheMiddleware {
	if ttl <= 0 {
		ttl = DefaultHTTPCacheTTL
	}
	return &CacheMiddleware{cache: cache, ttl: ttl, logger: logger}
}

// DefaultKey builds the default response-cache key for the request.
func DefaultKey(c echo.Context) string {
	return cachekeys.HTTP(helpers.UserIDOrNil(c), c.Request().URL.Path, c.QueryParams())
}

func is2xx(status int) bool { return status >= 200 && status < 300 }

// Cached adapts h into an echo handler that serves GET responses from the
// cache. On a hit the stored {status, data} is replayed with X-Cache: HIT and
// h is not called. On a miss h runs, its result is stored when cacheable, and
// the response carries X-Cache: MISS. Other methods run h uncached.
func (m *CacheMiddleware) Cached(opts CacheOptions, h JSONHandler) echo.HandlerFunc {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = m.ttl
	}
	keyFn := opts.KeyGenerator
	if keyFn == nil {
		keyFn = DefaultKey
	}
	cacheable := opts.Cacheable
	if cacheable == nil {
		cacheable = is2xx
	}

	return func(c echo.Context) error {
		if c.Request().Method != http.MethodGet || (opts.Condition != nil && !opts.Condition(c)) {
			return writeJSON(c, h)
		}

		key := keyFn(c)
		if v, ok := m.cache.Get(key); ok {
			if cached, ok := v.(*CachedResponse); ok {
				c.Response().Header().Set(HeaderXCache, CacheHit)
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"key": key}).Debug("http cache hit")
				}
				return c.JSONBlob(cached.Status, cached.Data)
			}
		}

		c.Response().Header().Set(HeaderXCache, CacheMiss)
		status, body, err := h(c)
		if err != nil {
			return err
		}
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
		if cacheable(status) {
			m.cache.Set(key, &CachedResponse{Status: status, Data: data}, ttl)
			if m.logger != nil {
				m.logger.WithFields(logrus.Fields{"key": key, "status": status, "ttl": ttl.String()}).Debug("http cache store")
			}
		}
		return c.JSONBlob(status, data)
	}
}

// Handle adapts h without caching, for routes that share the JSONHandler shape.
func Handle(h JSONHandler) echo.HandlerFunc {
	return func(c echo.Context) error { return writeJSON(c, h) }
}

func writeJSON(c echo.Context, h JSONHandler) error {
	status, body, err := h(c)
	if err != nil {
		return err
	}
	if body == nil {
		return c.NoContent(status)
	}
	return c.JSON(status, body)
}

func isUnsafe(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Invalidate evicts the keys resolved by fn after an unsafe request completes
// with a 2xx status. Failed writes evict nothing. Invalidation problems are
// logged and never change the response.
func (m *CacheMiddleware) Invalidate(fn InvalidationFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !isUnsafe(c.Request().Method) {
				return next(c)
			}
			if err := next(c); err != nil {
				return err
			}
			if !is2xx(c.Response().Status) {
				return nil
			}
			m.invalidate(c, fn)
			return nil
		}
	}
}

func (m *CacheMiddleware) invalidate(c echo.Context, fn InvalidationFunc) {
	defer func() {
		if r := recover(); r != nil && m.logger != nil {
			m.logger.WithFields(logrus.Fields{"path": c.Request().URL.Path, "panic": r}).Error("cache invalidation failed")
		}
	}()
	matchers := fn(c)
	deleted := 0
	for _, mt := range matchers {
		deleted += m.cache.DeleteMatching(mt)
	}
	if m.logger != nil {
		m.logger.WithFields(logrus.Fields{
			"method":   c.Request().Method,
			"path":     c.Request().URL.Path,
			"matchers": len(matchers),
			"deleted":  deleted,
		}).Debug("cache invalidated")
	}
}

// Patterns is a static invalidation table of regular expressions.
// It panics at startup on a malformed pattern.
func Patterns(patterns ...string) InvalidationFunc {
	ms := make([]ports.KeyMatcher, 0, len(patterns))
	for _, p := range patterns {
		ms = append(ms, expiring.MustPattern(p))
	}
	return func(echo.Context) []ports.KeyMatcher { return ms }
}

// PatternFunc builds regular expressions per request. Malformed patterns are
// logged and skipped.
func (m *CacheMiddleware) PatternFunc(fn func(c echo.Context) []string) InvalidationFunc {
	return func(c echo.Context) []ports.KeyMatcher {
		var ms []ports.KeyMatcher
		for _, p := range fn(c) {
			re, err := expiring.Pattern(p)
			if err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"pattern": p}).WithError(err).Warn("invalid cache invalidation pattern")
				}
				continue
			}
			ms = append(ms, re)
		}
		return ms
	}
}

// ForUser adapts a per-user invalidation table from cachekeys.
func ForUser(table func(userID uuid.UUID) []ports.KeyMatcher) InvalidationFunc {
	return func(c echo.Context) []ports.KeyMatcher {
		return table(helpers.UserIDOrNil(c))
	}
}
