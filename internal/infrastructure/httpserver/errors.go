package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/kugather/signup-verification/internal/core/domain/verification"
)

const (
	codeInternal    = "INTERNAL_ERROR"
	codeRateLimited = "RATE_LIMITED"
	codeBadRequest  = "BAD_REQUEST"
	codeNotFound    = "NOT_FOUND"
)

// ErrorBody is the machine-readable part of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is {"error":{"code","message"}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func statusForKind(kind verification.ErrorKind) int {
	switch kind {
	case verification.KindEmailConflict:
		return http.StatusConflict
	case verification.KindTokenExpiredOrUsed:
		return http.StatusGone
	case verification.KindInvalidEmailFormat,
		verification.KindInvalidTokenFormat,
		verification.KindInvalidSession,
		verification.KindVerificationNotStarted,
		verification.KindEmailMismatch:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return codeRateLimited
	case http.StatusNotFound:
		return codeNotFound
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	}
	if status >= http.StatusInternalServerError {
		return codeInternal
	}
	return codeBadRequest
}

// httpErrorHandler renders every error in the same envelope. Unclassified
// errors are logged and reported as a generic 500.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := ErrorBody{Code: codeInternal, Message: "internal server error"}

	var he *echo.HTTPError
	if verr, ok := verification.AsError(err); ok {
		status = statusForKind(verr.Kind)
		body = ErrorBody{Code: string(verr.Kind), Message: verr.Message}
	} else if errors.As(err, &he) {
		status = he.Code
		body.Code = codeForStatus(status)
		if msg, ok := he.Message.(string); ok {
			body.Message = msg
		} else {
			body.Message = http.StatusText(status)
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.WithFields(logrus.Fields{
			"method":     c.Request().Method,
			"path":       c.Path(),
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		}).WithError(err).Error("request failed")
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, ErrorResponse{Error: body})
	}
	if writeErr != nil {
		s.logger.WithError(writeErr).Warn("failed to write error response")
	}
}
