package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/kugather/signup-verification/internal/core/ports"
	customMiddleware "github.com/kugather/signup-verification/internal/infrastructure/httpserver/middleware"
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
	TrustedProxies []string
	CookieSecure   bool
}

type ServerDeps struct {
	VerificationService ports.VerificationService
	RateLimiterService  ports.RateLimiterService
	HealthCheckers      []ports.HealthChecker
}

type Server struct {
	echo            *echo.Echo
	config          *ServerConfig
	logger          *logrus.Logger
	verificationSvc ports.VerificationService
	middleware      *customMiddleware.MiddlewareCollection
	healthCheckers  []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if logger == nil {
		logger = logrus.New()
	}
	e.IPExtractor = newIPExtractor(serverConfig.TrustedProxies, logger)

	server := &Server{
		echo:            e,
		config:          serverConfig,
		logger:          logger,
		verificationSvc: deps.VerificationService,
		healthCheckers:  deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.RateLimiterService,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
