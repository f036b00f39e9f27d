package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/helpers"
)

func (s *Server) getMailchimpStatus(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	st, err := s.mailchimpSvc.GetStatus(c.Request().Context(), userID)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, st, nil
}

func (s *Server) syncMailchimp(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	res, err := s.mailchimpSvc.SyncSubscribers(c.Request().Context(), userID)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, res, nil
}
