package httpserver

import (
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/analytics"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/cachekeys"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/helpers"
)

// pageResponse wraps a paginated listing.
type pageResponse struct {
	Items  any `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func queryKey(fn func(uuid.UUID, url.Values) string) func(c echo.Context) string {
	return func(c echo.Context) string {
		return fn(helpers.UserIDOrNil(c), c.QueryParams())
	}
}

func growthPeriod(c echo.Context) analytics.Period {
	if p := c.QueryParam("period"); p != "" {
		return analytics.Period(p)
	}
	return analytics.Period30Days
}

func growthKey(c echo.Context) string {
	return cachekeys.GrowthResponse(helpers.UserIDOrNil(c), string(growthPeriod(c)))
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}
