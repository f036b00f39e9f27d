package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/avatarctic/newsletter-saas/internal/infrastructure/cachekeys"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/helpers"
	mw "github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/middleware"
)

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	track := s.echo.Group("/track")
	track.GET("/open/:newsletter_id/:subscriber_id", s.trackOpen)
	track.GET("/click/:newsletter_id/:subscriber_id", s.trackClick)

	cache := s.middleware.Cache
	api := s.echo.Group("/api/v1")

	admin := api.Group("/admin", mw.RequireAdminToken(s.config.AdminToken))
	admin.DELETE("/cache", mw.Handle(s.clearCache))
	admin.DELETE("/cache/keys", mw.Handle(s.deleteCacheKeys))

	protected := api.Group("")
	protected.Use(s.middleware.JWT.RequireJWT())
	protected.Use(s.middleware.RateLimit.Handler())

	subscribers := protected.Group("/subscribers", cache.Invalidate(mw.ForUser(cachekeys.SubscriberWrite)))
	subscribers.GET("", cache.Cached(mw.CacheOptions{KeyGenerator: queryKey(cachekeys.SubscriberList)}, s.listSubscribers))
	subscribers.GET("/count", cache.Cached(mw.CacheOptions{}, s.countSubscribers))
	subscribers.GET("/:id", cache.Cached(mw.CacheOptions{}, s.getSubscriber))
	subscribers.POST("", mw.Handle(s.createSubscriber))
	subscribers.POST("/import", mw.Handle(s.importSubscribers))
	subscribers.PUT("/:id", mw.Handle(s.updateSubscriber))
	subscribers.DELETE("/:id", mw.Handle(s.deleteSubscriber))

	newsletters := protected.Group("/newsletters", cache.Invalidate(mw.ForUser(cachekeys.NewsletterWrite)))
	newsletters.GET("", cache.Cached(mw.CacheOptions{KeyGenerator: queryKey(cachekeys.NewsletterList)}, s.listNewsletters))
	newsletters.GET("/stats", cache.Cached(mw.CacheOptions{}, s.getNewsletterStats))
	newsletters.GET("/:id", cache.Cached(mw.CacheOptions{}, s.getNewsletter))
	newsletters.POST("", mw.Handle(s.createNewsletter))
	newsletters.PUT("/:id", mw.Handle(s.updateNewsletter))
	newsletters.DELETE("/:id", mw.Handle(s.deleteNewsletter))
	newsletters.POST("/:id/schedule", mw.Handle(s.scheduleNewsletter))
	newsletters.POST("/:id/send", mw.Handle(s.sendNewsletter))

	analytics := protected.Group("/analytics")
	analytics.GET("/growth", cache.Cached(mw.CacheOptions{KeyGenerator: growthKey}, s.getGrowth))
	analytics.GET("/engagement", cache.Cached(mw.CacheOptions{}, s.getEngagement))

	settings := protected.Group("/settings", cache.Invalidate(mw.ForUser(cachekeys.SettingsWrite)))
	settings.GET("", cache.Cached(mw.CacheOptions{KeyGenerator: func(c echo.Context) string {
		return cachekeys.SettingsResponse(helpers.UserIDOrNil(c))
	}}, s.getSettings))
	settings.PUT("", mw.Handle(s.updateSettings))

	// status is cached by the service with its own TTL
	mailchimp := protected.Group("/mailchimp", cache.Invalidate(mw.ForUser(cachekeys.MailchimpSync)))
	mailchimp.GET("/status", mw.Handle(s.getMailchimpStatus))
	mailchimp.POST("/sync", mw.Handle(s.syncMailchimp))

	protected.GET("/cache/stats", mw.Handle(s.cacheStats))
	protected.DELETE("/cache", mw.Handle(s.clearUserCache))
}
