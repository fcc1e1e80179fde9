package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kugather/signup-verification/internal/core/domain/verification"
	"github.com/kugather/signup-verification/internal/core/ports"
)

// UserDirectoryMock is a lightweight mock for UserDirectory
type UserDirectoryMock struct {
	EmailExistsFn func(ctx context.Context, email string) (bool, error)
}

func (m *UserDirectoryMock) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.EmailExistsFn != nil {
		return m.EmailExistsFn(ctx, email)
	}
	return false, nil
}

// SentVerification records one SendVerification call.
type SentVerification struct {
	To    string
	Token string
	TTL   time.Duration
}

// VerificationMailerMock records sent links; SendVerificationFn overrides the default.
type VerificationMailerMock struct {
	mu                 sync.Mutex
	Sent               []SentVerification
	SendVerificationFn func(ctx context.Context, to, token string, ttl time.Duration) error
}

func (m *VerificationMailerMock) SendVerification(ctx context.Context, to, token string, ttl time.Duration) error {
	if m.SendVerificationFn != nil {
		if err := m.SendVerificationFn(ctx, to, token, ttl); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentVerification{To: to, Token: token, TTL: ttl})
	return nil
}

// LastToken returns the token of the most recent mail, or "".
func (m *VerificationMailerMock) LastToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return ""
	}
	return m.Sent[len(m.Sent)-1].Token
}

// SignupTokenCodecMock is a lightweight mock for SignupTokenCodec
type SignupTokenCodecMock struct {
	CreateFn func(email string, ttl time.Duration) (*verification.IssuedToken, error)
	VerifyFn func(token string) (*verification.VerifiedToken, error)
}

func (m *SignupTokenCodecMock) Create(email string, ttl time.Duration) (*verification.IssuedToken, error) {
	if m.CreateFn != nil {
		return m.CreateFn(email, ttl)
	}
	return &verification.IssuedToken{Token: "token", TokenID: uuid.New(), ExpiresAt: time.Now().Add(ttl)}, nil
}

func (m *SignupTokenCodecMock) Verify(token string) (*verification.VerifiedToken, error) {
	if m.VerifyFn != nil {
		return m.VerifyFn(token)
	}
	return &verification.VerifiedToken{}, nil
}

// RateLimitRepositoryMock is a lightweight mock for RateLimitRepository
type RateLimitRepositoryMock struct {
	IncrementWindowFn func(ctx context.Context, key string, window, ttl time.Duration) (int, time.Time, error)
}

func (m *RateLimitRepositoryMock) IncrementWindow(ctx context.Context, key string, window, ttl time.Duration) (int, time.Time, error) {
	if m.IncrementWindowFn != nil {
		return m.IncrementWindowFn(ctx, key, window, ttl)
	}
	return 1, time.Now().Truncate(window), nil
}

// RateLimiterServiceMock is a lightweight mock for RateLimiterService
type RateLimiterServiceMock struct {
	AllowFn func(ctx context.Context, key string) (bool, int, int, time.Time, error)
}

func (m *RateLimiterServiceMock) Allow(ctx context.Context, key string) (bool, int, int, time.Time, error) {
	if m.AllowFn != nil {
		return m.AllowFn(ctx, key)
	}
	return true, 1, 1, time.Now().Add(time.Minute), nil
}

// VerificationServiceMock is a lightweight mock for VerificationService
type VerificationServiceMock struct {
	SendFn    func(ctx context.Context, email string) (*verification.SendResult, error)
	ConsumeFn func(ctx context.Context, token string) error
	ConfirmFn func(ctx context.Context, sessionID string) (*verification.ConfirmResult, error)
	StatusFn  func(ctx context.Context, sessionID string) (*verification.SessionStatus, error)
}

func (m *VerificationServiceMock) Send(ctx context.Context, email string) (*verification.SendResult, error) {
	if m.SendFn != nil {
		return m.SendFn(ctx, email)
	}
	return &verification.SendResult{}, nil
}

func (m *VerificationServiceMock) Consume(ctx context.Context, token string) error {
	if m.ConsumeFn != nil {
		return m.ConsumeFn(ctx, token)
	}
	return nil
}

func (m *VerificationServiceMock) Confirm(ctx context.Context, sessionID string) (*verification.ConfirmResult, error) {
	if m.ConfirmFn != nil {
		return m.ConfirmFn(ctx, sessionID)
	}
	return nil, verification.ErrInvalidSession
}

func (m *VerificationServiceMock) Status(ctx context.Context, sessionID string) (*verification.SessionStatus, error) {
	if m.StatusFn != nil {
		return m.StatusFn(ctx, sessionID)
	}
	return nil, verification.ErrInvalidSession
}

// HealthCheckerMock is a lightweight mock for HealthChecker
type HealthCheckerMock struct {
	NameValue string
	CheckFn   func(ctx context.Context) error
}

func (m *HealthCheckerMock) Name() string {
	return m.NameValue
}

func (m *HealthCheckerMock) Check(ctx context.Context) error {
	if m.CheckFn != nil {
		return m.CheckFn(ctx)
	}
	return nil
}

var (
	_ ports.UserDirectory       = (*UserDirectoryMock)(nil)
	_ ports.VerificationMailer  = (*VerificationMailerMock)(nil)
	_ ports.SignupTokenCodec    = (*SignupTokenCodecMock)(nil)
	_ ports.RateLimitRepository = (*RateLimitRepositoryMock)(nil)
	_ ports.RateLimiterService  = (*RateLimiterServiceMock)(nil)
	_ ports.VerificationService = (*VerificationServiceMock)(nil)
	_ ports.HealthChecker       = (*HealthCheckerMock)(nil)
)
