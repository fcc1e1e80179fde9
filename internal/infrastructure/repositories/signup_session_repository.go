package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kugather/signup-verification/internal/core/domain/verification"
	"github.com/kugather/signup-verification/internal/core/ports"
)

const (
	sessionKeyPrefix = "session"

	sessionFieldEmail    = "email"
	sessionFieldVerified = "verified"

	sessionVerifiedNo  = "0"
	sessionVerifiedYes = "1"
)

// SignupSessionRepository stores session:{id} as a hash {email, verified}.
// The TTL is set once at creation and never refreshed.
type SignupSessionRepository struct {
	store  ports.KeyValueStore
	logger *logrus.Logger
}

func NewSignupSessionRepository(store ports.KeyValueStore, logger *logrus.Logger) *SignupSessionRepository {
	return &SignupSessionRepository{store: store, logger: logger}
}

var _ ports.SignupSessionRepository = (*SignupSessionRepository)(nil)

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + ":" + sessionID
}

func (r *SignupSessionRepository) Create(ctx context.Context, sessionID, email string, ttl time.Duration) error {
	fields := map[string]string{
		sessionFieldEmail:    email,
		sessionFieldVerified: sessionVerifiedNo,
	}
	if err := r.store.HashSetWithTTL(ctx, sessionKey(sessionID), fields, ttl); err != nil {
		return fmt.Errorf("failed to create signup session: %w", err)
	}
	return nil
}

func (r *SignupSessionRepository) GetEmail(ctx context.Context, sessionID string) (string, bool, error) {
	s, ok, err := r.Get(ctx, sessionID)
	if err != nil || !ok {
		return "", false, err
	}
	return s.Email, true, nil
}

func (r *SignupSessionRepository) Get(ctx context.Context, sessionID string) (*verification.SignupSession, bool, error) {
	fields, ok, err := r.store.HashGetAll(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read signup session: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	email := fields[sessionFieldEmail]
	if email == "" {
		// a hash without an email was not written by Create; treat it as absent
		if r.logger != nil {
			r.logger.WithField("session", shortID(sessionID)).Warn("signup session without email field")
		}
		return nil, false, nil
	}
	return &verification.SignupSession{
		ID:       sessionID,
		Email:    email,
		Verified: fields[sessionFieldVerified] == sessionVerifiedYes,
	}, true, nil
}

func (r *SignupSessionRepository) MarkVerified(ctx context.Context, sessionID string) (bool, error) {
	ok, err := r.store.HashSetIfExists(ctx, sessionKey(sessionID), sessionFieldVerified, sessionVerifiedYes)
	if err != nil {
		return false, fmt.Errorf("failed to mark signup session verified: %w", err)
	}
	return ok, nil
}

// shortID keeps session ids out of logs beyond a short prefix.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
