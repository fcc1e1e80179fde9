package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/kugather/signup-verification/internal/core/domain/verification"
	"github.com/kugather/signup-verification/internal/core/ports"
	"github.com/kugather/signup-verification/internal/infrastructure/token"
)

const sessionIDBytes = 32

// VerificationConfig carries the TTLs and domain policy of the signup flow.
type VerificationConfig struct {
	TokenTTL      time.Duration
	SessionTTL    time.Duration
	AllowedDomain string
}

// VerificationService drives send, consume and confirm over the stores.
type VerificationService struct {
	codec     ports.SignupTokenCodec
	whitelist ports.RedemptionWhitelist
	flags     ports.VerifiedEmailFlag
	sessions  ports.SignupSessionRepository
	users     ports.UserDirectory
	mailer    ports.VerificationMailer
	config    VerificationConfig
	validate  *validator.Validate
	now       func() time.Time
	newID     func() (string, error)
	logger    *logrus.Logger
}

type VerificationOption func(*VerificationService)

// WithVerificationClock overrides the clock used for TTL arithmetic.
func WithVerificationClock(now func() time.Time) VerificationOption {
	return func(s *VerificationService) { s.now = now }
}

// WithSessionIDGenerator overrides session id generation.
func WithSessionIDGenerator(gen func() (string, error)) VerificationOption {
	return func(s *VerificationService) { s.newID = gen }
}

func NewVerificationService(
	codec ports.SignupTokenCodec,
	whitelist ports.RedemptionWhitelist,
	flags ports.VerifiedEmailFlag,
	sessions ports.SignupSessionRepository,
	users ports.UserDirectory,
	mailer ports.VerificationMailer,
	config VerificationConfig,
	logger *logrus.Logger,
	opts ...VerificationOption,
) *VerificationService {
	s := &VerificationService{
		codec:     codec,
		whitelist: whitelist,
		flags:     flags,
		sessions:  sessions,
		users:     users,
		mailer:    mailer,
		config:    config,
		validate:  validator.New(),
		now:       time.Now,
		newID:     newSessionID,
		logger:    logger,
	}
	s.config.AllowedDomain = strings.ToLower(strings.TrimPrefix(config.AllowedDomain, "@"))
	if s.logger == nil {
		s.logger = logrus.New()
		s.logger.SetOutput(io.Discard)
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var _ ports.VerificationService = (*VerificationService)(nil)

func (s *VerificationService) Send(ctx context.Context, email string) (*verification.SendResult, error) {
	email = NormalizeEmail(email)
	if !s.emailAllowed(email) {
		return nil, verification.ErrInvalidEmailFormat
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if exists {
		return nil, verification.ErrEmailConflict
	}

	issued, err := s.codec.Create(email, s.config.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification token: %w", err)
	}

	// whitelist entry and signed token expire together
	remaining := issued.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		return nil, fmt.Errorf("verification token expired before it was stored")
	}
	if err := s.whitelist.Put(ctx, issued.TokenID, email, remaining); err != nil {
		return nil, err
	}

	sessionID, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}
	if err := s.sessions.Create(ctx, sessionID, email, s.config.SessionTTL); err != nil {
		return nil, err
	}

	if err := s.mailer.SendVerification(ctx, email, issued.Token, s.config.TokenTTL); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"email":   email,
		"session": shortSessionID(sessionID),
	}).Info("verification email sent")

	return &verification.SendResult{
		SessionID:  sessionID,
		SessionTTL: s.config.SessionTTL,
		ExpiresAt:  s.now().Add(s.config.SessionTTL),
	}, nil
}

func (s *VerificationService) Consume(ctx context.Context, tokenString string) error {
	verified, err := s.codec.Verify(tokenString)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrTokenExpired):
			return verification.ErrTokenExpiredOrUsed
		case errors.Is(err, token.ErrTokenInvalid):
			return verification.ErrInvalidTokenFormat
		default:
			return fmt.Errorf("failed to verify token: %w", err)
		}
	}

	email, ok, err := s.whitelist.Consume(ctx, verified.TokenID)
	if err != nil {
		return err
	}
	if !ok {
		return verification.ErrTokenExpiredOrUsed
	}

	if err := s.flags.Set(ctx, email, s.config.SessionTTL); err != nil {
		return err
	}

	s.logger.WithField("email", email).Info("verification link redeemed")
	return nil
}

func (s *VerificationService) Confirm(ctx context.Context, sessionID string) (*verification.ConfirmResult, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// a replayed confirm on an already verified session is a success, not VerificationNotStarted
	if session.Verified {
		return &verification.ConfirmResult{Verified: true, Email: session.Email}, nil
	}

	present, err := s.flags.Peek(ctx, session.Email)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, verification.ErrVerificationNotStarted
	}

	// mark before clear: a crash in between leaves a verified session and a stale flag
	ok, err := s.sessions.MarkVerified(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, verification.ErrInvalidSession
	}
	if err := s.flags.Clear(ctx, session.Email); err != nil {
		s.logger.WithField("email", session.Email).WithError(err).Warn("failed to clear verified flag")
	}

	s.logger.WithFields(logrus.Fields{
		"email":   session.Email,
		"session": shortSessionID(sessionID),
	}).Info("signup session verified")

	return &verification.ConfirmResult{Verified: true, Email: session.Email}, nil
}

func (s *VerificationService) Status(ctx context.Context, sessionID string) (*verification.SessionStatus, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &verification.SessionStatus{Email: session.Email, Verified: session.Verified}, nil
}

func (s *VerificationService) loadSession(ctx context.Context, sessionID string) (*verification.SignupSession, error) {
	if !ValidSessionID(sessionID) {
		return nil, verification.ErrInvalidSession
	}
	session, ok, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, verification.ErrInvalidSession
	}
	return session, nil
}

// emailAllowed checks syntax and that the domain is the allowed one or a subdomain of it.
func (s *VerificationService) emailAllowed(email string) bool {
	if err := s.validate.Var(email, "required,email,max=254"); err != nil {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	domain := email[at+1:]
	return domain == s.config.AllowedDomain || strings.HasSuffix(domain, "."+s.config.AllowedDomain)
}

// NormalizeEmail trims surrounding space and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidSessionID reports whether id has the shape of a generated session id.
func ValidSessionID(id string) bool {
	if len(id) != sessionIDBytes*2 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}

func newSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func shortSessionID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
