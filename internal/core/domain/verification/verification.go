package verification

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenAudience is the only audience accepted for signup verification tokens.
const TokenAudience = "signup"

// Claims is the payload of the mailed verification token.
// Subject carries the email, ID carries the token id (jti).
type Claims struct {
	jwt.RegisteredClaims
}

// IssuedToken is the result of minting a verification token.
type IssuedToken struct {
	Token     string
	TokenID   uuid.UUID
	ExpiresAt time.Time
}

// VerifiedToken is what a successfully verified token binds.
type VerifiedToken struct {
	Email   string
	TokenID uuid.UUID
}

// SignupSession is the server-side record behind the signup_session cookie.
type SignupSession struct {
	ID       string `json:"-"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

// SendRequest is the body of POST /verification
type SendRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// SendResult is returned by the send phase; the boundary stores SessionID in a cookie.
type SendResult struct {
	SessionID  string
	SessionTTL time.Duration
	ExpiresAt  time.Time
}

// ConfirmResult is returned by a successful confirm.
type ConfirmResult struct {
	Verified bool   `json:"verified"`
	Email    string `json:"email"`
}

// SessionStatus is the read-only view served to a polling client.
type SessionStatus struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}
