package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/kugather/signup-verification/configs"
	"github.com/kugather/signup-verification/internal/application/services"
	"github.com/kugather/signup-verification/internal/core/ports"
	"github.com/kugather/signup-verification/internal/infrastructure/db"
	"github.com/kugather/signup-verification/internal/infrastructure/email"
	"github.com/kugather/signup-verification/internal/infrastructure/health"
	"github.com/kugather/signup-verification/internal/infrastructure/httpserver"
	"github.com/kugather/signup-verification/internal/infrastructure/memory"
	"github.com/kugather/signup-verification/internal/infrastructure/redis"
	"github.com/kugather/signup-verification/internal/infrastructure/repositories"
	"github.com/kugather/signup-verification/internal/infrastructure/token"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger := newLogger(&cfg.Log)
	logger.Info("Starting signup verification service...")

	var (
		store        ports.KeyValueStore
		rateLimitRep ports.RateLimitRepository
		cache        ports.Cache
		checkers     []ports.HealthChecker
	)

	switch cfg.Store.Driver {
	case "memory":
		logger.Warn("Using in-memory store - state is not shared between instances")
		store = memory.NewStore()
		rateLimitRep = memory.NewRateLimitCounter()
	default:
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis: ", err)
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis successfully")

		store = redis.NewStore(redisClient, cfg.Store.KeyPrefix)
		rateLimitRep = repositories.NewRateLimitRedisRepository(redisClient, cfg.Store.KeyPrefix+":ratelimit")
		cache = redis.NewRedisCache(redisClient, cfg.Store.KeyPrefix)
		checkers = append(checkers, health.NewRedisHealthChecker(redisClient))
	}

	var users ports.UserDirectory = repositories.NoUserDirectory{}
	if cfg.UserDirectory.Driver == "postgres" {
		database, err := db.NewDatabaseWithConfig(&cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database: ", err)
		}
		defer database.Close()
		logger.Info("Connected to database successfully")

		if err := database.Migrate(); err != nil {
			logger.Warn("Failed to run migrations: ", err)
		}

		users = repositories.NewUserRepository(database, logger)
		if cache != nil {
			users = repositories.NewCachingUserRepository(users, cache, cfg.UserDirectory.CacheTTL)
		}
		checkers = append(checkers, health.NewDBHealthChecker(database))
	} else {
		logger.Warn("User directory disabled - every email is treated as unregistered")
	}

	sender, closeSender, err := email.NewMailSender(&cfg.Mail, logger)
	if err != nil {
		logger.Fatal("Failed to initialize mail sender: ", err)
	}
	defer func() {
		if err := closeSender(); err != nil {
			logger.WithError(err).Warn("Failed to close mail sender")
		}
	}()

	mailer, err := email.NewVerificationMailer(&email.MailerConfig{
		CompanyName: cfg.Mail.CompanyName,
		BaseURL:     cfg.Verification.BaseURL,
	}, sender, logger)
	if err != nil {
		logger.Fatal("Failed to initialize verification mailer: ", err)
	}

	verificationService := services.NewVerificationService(
		token.NewCodec(token.StaticKey(cfg.Verification.Secret), token.WithIssuer(cfg.Verification.BaseURL)),
		repositories.NewWhitelistRepository(store, logger),
		repositories.NewVerifiedFlagRepository(store),
		repositories.NewSignupSessionRepository(store, logger),
		users,
		mailer,
		services.VerificationConfig{
			TokenTTL:      cfg.Verification.TokenTTL,
			SessionTTL:    cfg.Verification.SessionTTL,
			AllowedDomain: cfg.Verification.AllowedDomain,
		},
		logger,
	)

	rateLimiterService := services.NewRateLimiterService(rateLimitRep, &services.RateLimiterConfig{
		RequestsPerWindow: cfg.RateLimit.SendPerWindow,
		Window:            cfg.RateLimit.Window,
	}, logger)

	server := httpserver.NewServer(&httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		CookieSecure:   cfg.Verification.CookieSecure,
	}, logger, httpserver.ServerDeps{
		VerificationService: verificationService,
		RateLimiterService:  rateLimiterService,
		HealthCheckers:      checkers,
	})

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Infof("Server started on %s", server.Address())

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		logger.WithError(err).Error("Server failed")
	}

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}
	return logger
}
