package verification

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable machine-readable code of a verification failure.
type ErrorKind string

const (
	KindInvalidEmailFormat     ErrorKind = "INVALID_EMAIL_FORMAT"
	KindEmailConflict          ErrorKind = "EMAIL_CONFLICT"
	KindInvalidTokenFormat     ErrorKind = "INVALID_TOKEN_FORMAT"
	KindTokenExpiredOrUsed     ErrorKind = "TOKEN_EXPIRED"
	KindInvalidSession         ErrorKind = "INVALID_SESSION"
	KindVerificationNotStarted ErrorKind = "VERIFICATION_NOT_STARTED"
	// KindEmailMismatch has no producer in the single-email session design.
	KindEmailMismatch ErrorKind = "EMAIL_MISMATCH"
)

// Error is a classified, terminal verification failure. The caller has to
// restart the signup flow; none of these are retried by the system.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrInvalidSession)
// holds regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrInvalidEmailFormat     = newError(KindInvalidEmailFormat, "email address is malformed or not in the allowed domain")
	ErrEmailConflict          = newError(KindEmailConflict, "an account already exists for this email address")
	ErrInvalidTokenFormat     = newError(KindInvalidTokenFormat, "verification link is invalid")
	ErrTokenExpiredOrUsed     = newError(KindTokenExpiredOrUsed, "verification link has expired or was already used")
	ErrInvalidSession         = newError(KindInvalidSession, "signup session is missing or expired")
	ErrVerificationNotStarted = newError(KindVerificationNotStarted, "email has not been verified yet")
	ErrEmailMismatch          = newError(KindEmailMismatch, "verified email does not match the signup session")
)

// AsError extracts a classified verification error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
