package middleware_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/auth"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/helpers"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/middleware"
	tmocks "github.com/avatarctic/newsletter-saas/test/mocks"
)

func TestJWTMiddleware_MissingTokenReturns401(t *testing.T) {
	e := echo.New()
	m := middleware.NewJWTMiddleware(&tmocks.TokenServiceMock{}, logrus.New())
	handler := m.RequireJWT()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, htErr.Code)
}

func TestJWTMiddleware_InvalidTokenReturns401(t *testing.T) {
	e := echo.New()
	tokens := &tmocks.TokenServiceMock{ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
		return nil, fmt.Errorf("bad")
	}}
	m := middleware.NewJWTMiddleware(tokens, logrus.New())
	handler := m.RequireJWT()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, htErr.Code)
}

func TestJWTMiddleware_SetsUserContext(t *testing.T) {
	e := echo.New()
	uid := uuid.New()
	tokens := &tmocks.TokenServiceMock{ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
		require.Equal(t, "good", token)
		return &auth.Claims{UserID: uid, Email: "a@example.com"}, nil
	}}
	m := middleware.NewJWTMiddleware(tokens, nil)
	var got uuid.UUID
	handler := m.RequireJWT()(func(c echo.Context) error {
		got, _ = helpers.GetUserIDRaw(c)
		return c.NoContent(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	c := e.NewContext(req, httptest.NewRecorder())
	require.NoError(t, handler(c))
	require.Equal(t, uid, got)
}

func TestRateLimitMiddleware_Returns429WhenDenied(t *testing.T) {
	e := echo.New()
	rl := &tmocks.RateLimiterServiceMock{AllowFn: func(ctx context.Context, userID uuid.UUID) (bool, int, int, time.Time, error) {
		return false, 0, 10, time.Unix(1700000000, 0), nil
	}}
	m := middleware.NewRateLimitMiddleware(rl, nil)
	h := m.Handler()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	helpers.SetUserID(c, uuid.New())
	err := h(c)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusTooManyRequests, htErr.Code)
	require.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "1700000000", rec.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimitMiddleware_SkipsAnonymous(t *testing.T) {
	e := echo.New()
	rl := &tmocks.RateLimiterServiceMock{AllowFn: func(ctx context.Context, userID uuid.UUID) (bool, int, int, time.Time, error) {
		t.Fatal("limiter must not be consulted without a user")
		return false, 0, 0, time.Time{}, nil
	}}
	m := middleware.NewRateLimitMiddleware(rl, nil)
	h := m.Handler()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	require.NoError(t, h(c))
}

func TestRequireAdminToken(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	err := middleware.RequireAdminToken("")(ok)(c)
	require.Equal(t, http.StatusNotFound, err.(*echo.HTTPError).Code)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("X-Admin-Token", "wrong")
	err = middleware.RequireAdminToken("secret")(ok)(e.NewContext(req, httptest.NewRecorder()))
	require.Equal(t, http.StatusForbidden, err.(*echo.HTTPError).Code)

	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("X-Admin-Token", "secret")
	require.NoError(t, middleware.RequireAdminToken("secret")(ok)(e.NewContext(req, httptest.NewRecorder())))
}
