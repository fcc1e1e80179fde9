package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kugather/signup-verification/internal/core/domain/verification"
)

const (
	phaseSend    = "send"
	phaseConsume = "consume"
	phaseConfirm = "confirm"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "The total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "The HTTP request latencies in seconds",
		},
		[]string{"method", "endpoint"},
	)

	verificationEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_events_total",
			Help: "Verification protocol steps by phase and outcome",
		},
		[]string{"phase", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(verificationEvents)
}

// GetRequestsTotal returns the requests total metric for middleware use
func GetRequestsTotal() *prometheus.CounterVec {
	return requestsTotal
}

// GetRequestDuration returns the request duration metric for middleware use
func GetRequestDuration() *prometheus.HistogramVec {
	return requestDuration
}

// GetVerificationEvents returns the per-phase outcome counter
func GetVerificationEvents() *prometheus.CounterVec {
	return verificationEvents
}

// outcomeLabel is "success", the lower-cased error kind, or "error".
func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	if verr, ok := verification.AsError(err); ok {
		return strings.ToLower(string(verr.Kind))
	}
	return "error"
}

func recordVerificationEvent(phase string, err error) {
	verificationEvents.WithLabelValues(phase, outcomeLabel(err)).Inc()
}

// LogMetricsInitialization logs that metrics have been initialized
func (s *Server) LogMetricsInitialization() {
	if s.logger != nil {
		s.logger.Info("Prometheus metrics initialized and registered")
		s.logger.WithFields(map[string]interface{}{
			"http_requests_total":       "Counter for HTTP requests by method, endpoint, status",
			"http_request_duration":     "Histogram for HTTP request duration by method, endpoint",
			"verification_events_total": "Counter for verification steps by phase, outcome",
			"metrics_endpoint":          "/metrics",
		}).Debug("Available Prometheus metrics")
	}
}

// metricsEndpoint serves the default registry
func (s *Server) metricsEndpoint(c echo.Context) error {
	if s.logger != nil {
		s.logger.Debug("Serving Prometheus metrics")
	}
	var handler http.Handler = promhttp.Handler()
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}
