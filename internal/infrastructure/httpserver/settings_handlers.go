package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/settings"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/helpers"
)

func (s *Server) getSettings(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	st, err := s.settingsSvc.GetSettings(c.Request().Context(), userID)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, st, nil
}

func (s *Server) updateSettings(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	var req settings.UpdateSettingsRequest
	if err := bind(c, &req); err != nil {
		return 0, nil, err
	}
	st, err := s.settingsSvc.UpdateSettings(c.Request().Context(), userID, &req)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, st, nil
}
