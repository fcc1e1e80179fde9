package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/kugather/signup-verification/internal/core/ports"
)

const (
	verifiedKeyPrefix = "verified"
	verifiedSentinel  = "1"
)

// VerifiedFlagRepository stores verified:{email} -> "1" once a link was redeemed.
type VerifiedFlagRepository struct {
	store ports.KeyValueStore
}

func NewVerifiedFlagRepository(store ports.KeyValueStore) *VerifiedFlagRepository {
	return &VerifiedFlagRepository{store: store}
}

var _ ports.VerifiedEmailFlag = (*VerifiedFlagRepository)(nil)

func verifiedKey(email string) string {
	return verifiedKeyPrefix + ":" + email
}

func (r *VerifiedFlagRepository) Set(ctx context.Context, email string, ttl time.Duration) error {
	if err := r.store.SetWithTTL(ctx, verifiedKey(email), verifiedSentinel, ttl); err != nil {
		return fmt.Errorf("failed to set verified flag: %w", err)
	}
	return nil
}

func (r *VerifiedFlagRepository) Peek(ctx context.Context, email string) (bool, error) {
	_, ok, err := r.store.Get(ctx, verifiedKey(email))
	if err != nil {
		return false, fmt.Errorf("failed to read verified flag: %w", err)
	}
	return ok, nil
}

func (r *VerifiedFlagRepository) Clear(ctx context.Context, email string) error {
	if err := r.store.Delete(ctx, verifiedKey(email)); err != nil {
		return fmt.Errorf("failed to clear verified flag: %w", err)
	}
	return nil
}
