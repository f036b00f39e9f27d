package httpserver

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/helpers"
)

// transparent 1x1 GIF
var trackingPixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// trackOpen always serves the pixel; recording failures are logged only.
func (s *Server) trackOpen(c echo.Context) error {
	nid, err := helpers.ParseUUIDParam(c, "newsletter_id")
	if err != nil {
		return err
	}
	sid, err := helpers.ParseUUIDParam(c, "subscriber_id")
	if err != nil {
		return err
	}
	if err := s.analyticsSvc.RecordOpen(c.Request().Context(), nid, sid); err != nil && s.logger != nil {
		s.logger.WithFields(logrus.Fields{"newsletter_id": nid, "subscriber_id": sid}).WithError(err).Warn("failed to record open")
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/gif", trackingPixel)
}

func (s *Server) trackClick(c echo.Context) error {
	nid, err := helpers.ParseUUIDParam(c, "newsletter_id")
	if err != nil {
		return err
	}
	sid, err := helpers.ParseUUIDParam(c, "subscriber_id")
	if err != nil {
		return err
	}
	target, err := url.Parse(c.QueryParam("url"))
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid url")
	}
	if err := s.analyticsSvc.RecordClick(c.Request().Context(), nid, sid, target.String()); err != nil && s.logger != nil {
		s.logger.WithFields(logrus.Fields{"newsletter_id": nid, "subscriber_id": sid}).WithError(err).Warn("failed to record click")
	}
	return c.Redirect(http.StatusFound, target.String())
}
