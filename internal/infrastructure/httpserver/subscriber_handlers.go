package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/subscriber"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/helpers"
)

func (s *Server) listSubscribers(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	limit, offset := helpers.Pagination(c)
	filter := subscriber.ListFilter{
		Status: subscriber.Status(c.QueryParam("status")),
		Search: c.QueryParam("search"),
		Limit:  limit,
		Offset: offset,
	}
	items, total, err := s.subscriberSvc.ListSubscribers(c.Request().Context(), userID, filter)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, pageResponse{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Server) countSubscribers(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	n, err := s.subscriberSvc.CountSubscribers(c.Request().Context(), userID)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, map[string]int{"count": n}, nil
}

func (s *Server) getSubscriber(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return 0, nil, err
	}
	sub, err := s.subscriberSvc.GetSubscriber(c.Request().Context(), userID, id)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, sub, nil
}

func (s *Server) createSubscriber(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	var req subscriber.CreateSubscriberRequest
	if err := bind(c, &req); err != nil {
		return 0, nil, err
	}
	sub, err := s.subscriberSvc.CreateSubscriber(c.Request().Context(), userID, &req)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusCreated, sub, nil
}

func (s *Server) importSubscribers(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	var req subscriber.ImportRequest
	if err := bind(c, &req); err != nil {
		return 0, nil, err
	}
	res, err := s.subscriberSvc.ImportSubscribers(c.Request().Context(), userID, &req)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, res, nil
}

func (s *Server) updateSubscriber(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return 0, nil, err
	}
	var req subscriber.UpdateSubscriberRequest
	if err := bind(c, &req); err != nil {
		return 0, nil, err
	}
	sub, err := s.subscriberSvc.UpdateSubscriber(c.Request().Context(), userID, id, &req)
	if err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusOK, sub, nil
}

func (s *Server) deleteSubscriber(c echo.Context) (int, any, error) {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return 0, nil, err
	}
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return 0, nil, err
	}
	if err := s.subscriberSvc.DeleteSubscriber(c.Request().Context(), userID, id); err != nil {
		return 0, nil, helpers.HTTPError(err)
	}
	return http.StatusNoContent, nil, nil
}
