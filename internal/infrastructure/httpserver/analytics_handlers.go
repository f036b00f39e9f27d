package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/helpers"
)

func (s *Server) getGrowth(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	g, err := s.analyticsSvc.GetGrowth(c.Request().Context(), userID, growthPeriod(c))
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, g, nil
}

func (s *Server) getEngagement(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	e, err := s.analyticsSvc.GetEngagement(c.Request().Context(), userID)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, e, nil
}
