package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kugather/signup-verification/internal/core/domain/verification"
)

// SessionCookieName carries the signup session id between send and confirm.
const SessionCookieName = "signup_session"

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) sendVerification(c echo.Context) error {
	var req verification.SendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(&req); err != nil {
		recordVerificationEvent(phaseSend, verification.ErrInvalidEmailFormat)
		return verification.ErrInvalidEmailFormat
	}

	res, err := s.verificationSvc.Send(c.Request().Context(), req.Email)
	recordVerificationEvent(phaseSend, err)
	if err != nil {
		return err
	}

	c.SetCookie(s.sessionCookie(res.SessionID, res.SessionTTL))
	return c.JSON(http.StatusAccepted, messageResponse{Message: "verification email sent"})
}

// startVerification is opened by the browser from the mailed link.
func (s *Server) startVerification(c echo.Context) error {
	err := s.verificationSvc.Consume(c.Request().Context(), c.QueryParam("token"))
	recordVerificationEvent(phaseConsume, err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) confirmVerification(c echo.Context) error {
	sessionID, err := sessionIDFromCookie(c)
	if err != nil {
		recordVerificationEvent(phaseConfirm, err)
		return err
	}

	res, err := s.verificationSvc.Confirm(c.Request().Context(), sessionID)
	recordVerificationEvent(phaseConfirm, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) sessionStatus(c echo.Context) error {
	sessionID, err := sessionIDFromCookie(c)
	if err != nil {
		return err
	}

	status, err := s.verificationSvc.Status(c.Request().Context(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

func sessionIDFromCookie(c echo.Context) (string, error) {
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return "", verification.ErrInvalidSession
	}
	return cookie.Value, nil
}

func (s *Server) sessionCookie(sessionID string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}
