package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/newsletter-saas/internal/infrastructure/cachekeys"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/helpers"
)

func (s *Server) cacheStats(c echo.Context) (int, any, error) {
	return http.StatusOK, s.cache.Stats(), nil
}

// clearUserCache drops every cached entry owned by the caller.
func (s *Server) clearUserCache(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	removed := 0
	for _, m := range cachekeys.UserScope(userID) {
		removed += s.cache.DeleteMatching(m)
	}
	return http.StatusOK, map[string]int{"removed": removed}, nil
}

func (s *Server) clearCache(c echo.Context) (int, any, error) {
	s.cache.Clear()
	if s.logger != nil {
		s.logger.WithField("ip", c.RealIP()).Info("cache cleared by admin")
	}
	return http.StatusNoContent, nil, nil
}

// deleteCacheKeys removes keys matching the regular expression in ?pattern=.
func (s *Server) deleteCacheKeys(c echo.Context) (int, any, error) {
	pattern := c.QueryParam("pattern")
	if pattern == "" {
		return 0, nil, echo.NewHTTPError(http.StatusBadRequest, "pattern is required")
	}
	removed, err := s.cache.DeletePattern(pattern)
	if err != nil {
		return 0, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid pattern: "+err.Error())
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"pattern": pattern, "removed": removed}).Info("cache keys deleted by admin")
	}
	return http.StatusOK, map[string]int{"removed": removed}, nil
}
