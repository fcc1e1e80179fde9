package httpserver

import (
	"crypto/rand"
	"net/http"

	"github.com/labstack/echo/v4/middleware"
	"github.com/oklog/ulid/v2"
)

func (s *Server) setupMiddleware() {
	s.echo.HTTPErrorHandler = s.httpErrorHandler
	s.echo.Validator = newRequestValidator()

	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: newRequestID}))

	// The SPA sends the session cookie cross-origin, so origins must be explicit.
	if len(s.config.AllowedOrigins) > 0 {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     s.config.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Content-Type"},
			AllowCredentials: true,
		}))
	}

	s.echo.Use(s.middleware.Metrics.CollectHTTPMetrics())
	s.echo.Use(s.middleware.Logging.RequestLogging())
}

func newRequestID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
