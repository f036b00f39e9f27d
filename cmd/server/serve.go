package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	config "github.com/avatarctic/newsletter-saas/configs"
	"github.com/avatarctic/newsletter-saas/internal/application/services"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/db"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/email"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/expiring"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/health"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/httpserver"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/mailchimp"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/ratelimit"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/redis"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/repositories"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/retry"
)

func serveCmd() *cobra.Command {
	var (
		migrationsPath string
		skipMigrations bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return serve(cfg, migrationsPath, skipMigrations)
		},
	}

	cmd.Flags().StringVar(&migrationsPath, "migrations", "./migrations", "Path to SQL migrations")
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply pending migrations on start")
	return cmd
}

func serve(cfg *config.Config, migrationsPath string, skipMigrations bool) error {
	logger := newLogger(cfg.Log)
	logger.Info("Starting newsletter SaaS API...")

	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()
	logger.Info("Connected to database successfully")

	if !skipMigrations {
		if err := database.Migrate(migrationsPath); err != nil {
			logger.WithError(err).Warn("Failed to run migrations")
		}
	}

	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis successfully")

	cache := expiring.New(expiring.Config{
		DefaultTTL:    cfg.Cache.DefaultTTL,
		SweepInterval: cfg.Cache.SweepInterval,
		Coalesce:      cfg.Cache.CoalesceMisses,
	}, logger)
	defer cache.Close()

	limiter := ratelimit.New("mailchimp", ratelimit.Config{
		MaxRequests: cfg.Mailchimp.MaxRequests,
		Interval:    cfg.Mailchimp.Interval,
		Concurrency: cfg.Mailchimp.Concurrency,
	}, logger)
	lists := mailchimp.NewClient(mailchimp.Config{
		APIKey:       cfg.Mailchimp.APIKey,
		ServerPrefix: cfg.Mailchimp.ServerPrefix,
		ListID:       cfg.Mailchimp.ListID,
		Timeout:      cfg.Mailchimp.Timeout,
	}, limiter, retry.Config{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		Delay:         cfg.Retry.Delay,
		BackoffFactor: cfg.Retry.BackoffFactor,
	}, logger)
	if !lists.Configured() {
		logger.Warn("Mailchimp API key not set; list sync is disabled")
	}

	// Decorate with caching
	ttl := cfg.Cache.SubResourceTTL
	subscriberRepo := repositories.NewCachingSubscriberRepository(repositories.NewSubscriberRepository(database, logger), cache, ttl)
	newsletterRepo := repositories.NewCachingNewsletterRepository(repositories.NewNewsletterRepository(database, logger), cache, ttl)
	settingsRepo := repositories.NewCachingSettingsRepository(repositories.NewSettingsRepository(database, logger), cache, ttl)
	analyticsRepo := repositories.NewAnalyticsRepository(database, logger)
	rateLimitRepo := repositories.NewRateLimitRedisRepository(redisClient)

	emailService, err := email.NewEmailService(&email.EmailConfig{
		SendGridAPIKey: cfg.Email.SendGridAPIKey,
		FromEmail:      cfg.Email.FromEmail,
		FromName:       cfg.Email.FromName,
		CompanyName:    cfg.Email.CompanyName,
		BaseURL:        cfg.Email.BaseURL,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	rateLimiterService := services.NewRateLimiterService(rateLimitRepo, &services.RateLimiterConfig{
		DefaultRequestsPerMinute: cfg.RateLimit.DefaultRequestsPerMinute,
		BurstMultiplier:          cfg.RateLimit.BurstMultiplier,
		Window:                   cfg.RateLimit.Window,
		KeyPrefix:                cfg.RateLimit.KeyPrefix,
	}, logger)

	checkers := []ports.HealthChecker{
		health.NewDBHealthChecker(database),
		health.NewRedisHealthChecker(redisClient),
	}
	if lists.Configured() {
		checkers = append(checkers, health.NewMailchimpHealthChecker(lists))
	}

	server := httpserver.NewServer(&httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Environment:    cfg.Server.Environment,
		AdminToken:     cfg.Server.AdminToken,
	}, logger, httpserver.ServerDeps{
		SubscriberService:  services.NewSubscriberService(subscriberRepo, settingsRepo, lists, logger),
		NewsletterService:  services.NewNewsletterService(newsletterRepo, subscriberRepo, settingsRepo, emailService, logger),
		AnalyticsService:   services.NewAnalyticsService(analyticsRepo, newsletterRepo, cache, ttl, logger),
		SettingsService:    services.NewSettingsService(settingsRepo, logger),
		MailchimpService:   services.NewMailchimpService(lists, subscriberRepo, settingsRepo, cache, cfg.Mailchimp.StatusTTL, logger),
		TokenService:       services.NewTokenService(cfg.JWT.Secret),
		RateLimiterService: rateLimiterService,
		Cache:              cache,
		HTTPCacheTTL:       cfg.Cache.HTTPTTL,
		LimiterStats:       limiter.Stats,
		HealthCheckers:     checkers,
	})
	server.LogMetricsInitialization()

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()
	logger.WithFields(logrus.Fields{"host": cfg.Server.Host, "port": cfg.Server.Port}).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("Shutting down server...")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
