package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	customMiddleware "github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver/middleware"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/ratelimit"
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	Environment    string
	AdminToken     string
}

type ServerDeps struct {
	SubscriberService  ports.SubscriberService
	NewsletterService  ports.NewsletterService
	AnalyticsService   ports.AnalyticsService
	SettingsService    ports.SettingsService
	MailchimpService   ports.MailchimpService
	TokenService       ports.TokenService
	RateLimiterService ports.RateLimiterService
	Cache              ports.ExpiringCache
	HTTPCacheTTL       time.Duration
	// LimiterStats reports the outbound mailing-list limiter on /health. Optional.
	LimiterStats   func() ratelimit.Stats
	HealthCheckers []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	subscriberSvc  ports.SubscriberService
	newsletterSvc  ports.NewsletterService
	analyticsSvc   ports.AnalyticsService
	settingsSvc    ports.SettingsService
	mailchimpSvc   ports.MailchimpService
	cache          ports.ExpiringCache
	limiterStats   func() ratelimit.Stats
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		subscriberSvc:  deps.SubscriberService,
		newsletterSvc:  deps.NewsletterService,
		analyticsSvc:   deps.AnalyticsService,
		settingsSvc:    deps.SettingsService,
		mailchimpSvc:   deps.MailchimpService,
		cache:          deps.Cache,
		limiterStats:   deps.LimiterStats,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.TokenService,
			deps.RateLimiterService,
			deps.Cache,
			deps.HTTPCacheTTL,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
