package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kugather/signup-verification/internal/core/domain/verification"
	"github.com/kugather/signup-verification/internal/core/ports"
)

var (
	// ErrTokenInvalid covers bad signatures, malformed tokens and wrong audiences.
	ErrTokenInvalid = errors.New("verification token is invalid")
	// ErrTokenExpired is returned only for tokens whose signature checked out.
	ErrTokenExpired = errors.New("verification token has expired")
)

// clockSkewLeeway tolerates a verifying instance whose clock runs slightly
// behind the minting one. Expiry stays exact.
const clockSkewLeeway = 5 * time.Second

// KeyProvider returns the HMAC key used to sign and verify tokens.
type KeyProvider func() []byte

// StaticKey returns a KeyProvider for a fixed shared secret.
func StaticKey(secret string) KeyProvider {
	key := []byte(secret)
	return func() []byte { return key }
}

// Codec signs verification tokens as HS256 JWTs.
type Codec struct {
	key    KeyProvider
	issuer string
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// WithIssuer sets the iss claim on minted tokens. Verify does not require it.
func WithIssuer(issuer string) Option {
	return func(c *Codec) { c.issuer = issuer }
}

func NewCodec(key KeyProvider, opts ...Option) *Codec {
	c := &Codec{key: key, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ ports.SignupTokenCodec = (*Codec)(nil)

// Create mints a token for email that expires ttl from now.
func (c *Codec) Create(email string, ttl time.Duration) (*verification.IssuedToken, error) {
	tokenID, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token id: %w", err)
	}

	now := c.now()
	expiresAt := now.Add(ttl)
	claims := &verification.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   email,
			Audience:  jwt.ClaimStrings{verification.TokenAudience},
			ID:        tokenID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key())
	if err != nil {
		return nil, fmt.Errorf("failed to sign verification token: %w", err)
	}

	return &verification.IssuedToken{Token: signed, TokenID: tokenID, ExpiresAt: expiresAt}, nil
}

// Verify checks signature, audience and expiry, in that order of precedence.
func (c *Codec) Verify(tokenString string) (*verification.VerifiedToken, error) {
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &verification.Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC (prevent alg confusion)
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.key(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(verification.TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkewLeeway),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		// Claims are only validated after the signature, so an expiry error
		// implies an authentic token. A wrong audience wins over expiry.
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenInvalidAudience) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*verification.Claims)
	if !ok || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	// The leeway above also widens exp; links must not outlive their TTL.
	if claims.ExpiresAt == nil || !c.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	return &verification.VerifiedToken{Email: claims.Subject, TokenID: tokenID}, nil
}
