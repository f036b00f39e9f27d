package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/newsletter"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/helpers"
)

type scheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

func (s *Server) listNewsletters(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	limit, offset := helpers.Pagination(c)
	items, total, err := s.newsletterSvc.ListNewsletters(c.Request().Context(), userID, newsletter.Status(c.QueryParam("status")), limit, offset)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, pageResponse{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Server) getNewsletterStats(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	st, err := s.newsletterSvc.GetStats(c.Request().Context(), userID)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, st, nil
}

func (s *Server) getNewsletter(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return 0, nil, err
	}
	n, err := s.newsletterSvc.GetNewsletter(c.Request().Context(), userID, id)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, n, nil
}

func (s *Server) createNewsletter(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	var req newsletter.CreateNewsletterRequest
	if err := bind(c, &req); err != nil {
		return 0, nil, err
	}
	n, err := s.newsletterSvc.CreateNewsletter(c.Request().Context(), userID, &req)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusCreated, n, nil
}

func (s *Server) updateNewsletter(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return 0, nil, err
	}
	var req newsletter.UpdateNewsletterRequest
	if err := bind(c, &req); err != nil {
		return 0, nil, err
	}
	n, err := s.newsletterSvc.UpdateNewsletter(c.Request().Context(), userID, id, &req)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, n, nil
}

func (s *Server) deleteNewsletter(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return 0, nil, err
	}
	if err := s.newsletterSvc.DeleteNewsletter(c.Request().Context(), userID, id); err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusNoContent, nil, nil
}

func (s *Server) scheduleNewsletter(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return 0, nil, err
	}
	var req scheduleRequest
	if err := bind(c, &req); err != nil {
		return 0, nil, err
	}
	if req.ScheduledAt.IsZero() {
		return 0, nil, echo.NewHTTPError(http.StatusBadRequest, "scheduled_at is required")
	}
	n, err := s.newsletterSvc.ScheduleNewsletter(c.Request().Context(), userID, id, req.ScheduledAt)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, n, nil
}

func (s *Server) sendNewsletter(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return 0, nil, err
	}
	n, err := s.newsletterSvc.SendNewsletter(c.Request().Context(), userID, id)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, n, nil
}
