package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kugather/signup-verification/internal/core/domain/verification"
)

// SignupTokenCodec mints and verifies the signed token embedded in the mailed link.
// Verify fails closed: any parse, signature or audience problem is reported as invalid.
type SignupTokenCodec interface {
	Create(email string, ttl time.Duration) (*verification.IssuedToken, error)
	Verify(token string) (*verification.VerifiedToken, error)
}

// RedemptionWhitelist holds not-yet-redeemed token ids, each bound to an email.
type RedemptionWhitelist interface {
	Put(ctx context.Context, tokenID uuid.UUID, email string, ttl time.Duration) error
	// Consume atomically reads and deletes the entry; ok=false if absent.
	Consume(ctx context.Context, tokenID uuid.UUID) (email string, ok bool, err error)
}

// VerifiedEmailFlag marks that some token for an email was redeemed.
type VerifiedEmailFlag interface {
	Set(ctx context.Context, email string, ttl time.Duration) error
	Peek(ctx context.Context, email string) (bool, error)
	Clear(ctx context.Context, email string) error
}

// SignupSessionRepository stores the record behind the signup_session cookie.
type SignupSessionRepository interface {
	Create(ctx context.Context, sessionID, email string, ttl time.Duration) error
	GetEmail(ctx context.Context, sessionID string) (email string, ok bool, err error)
	Get(ctx context.Context, sessionID string) (*verification.SignupSession, bool, error)
	// MarkVerified is idempotent; ok=false if the session no longer exists.
	MarkVerified(ctx context.Context, sessionID string) (ok bool, err error)
}

// VerificationService is the three-phase email verification protocol.
// Failures that the caller can act on are *verification.Error values.
type VerificationService interface {
	Send(ctx context.Context, email string) (*verification.SendResult, error)
	Consume(ctx context.Context, token string) error
	Confirm(ctx context.Context, sessionID string) (*verification.ConfirmResult, error)
	Status(ctx context.Context, sessionID string) (*verification.SessionStatus, error)
}
