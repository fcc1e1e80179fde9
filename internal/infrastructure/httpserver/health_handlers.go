package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
)

type healthResponse struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Service      string            `json:"service"`
	Dependencies map[string]string `json:"dependencies"`
}

// healthCheck probes every dependency; any failure reports degraded with 503.
func (s *Server) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:       statusHealthy,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Service:      "signup-verification",
		Dependencies: make(map[string]string),
	}
	for _, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		if err := hc.Check(ctx); err != nil {
			resp.Dependencies[hc.Name()] = statusUnhealthy
			resp.Status = statusDegraded
			s.logger.WithField("dependency", hc.Name()).WithError(err).Warn("health check failed")
			continue
		}
		resp.Dependencies[hc.Name()] = statusHealthy
	}

	code := http.StatusOK
	if resp.Status != statusHealthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}
