package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kugather/signup-verification/internal/core/ports"
)

const whitelistKeyPrefix = "wl"

// WhitelistRepository stores not-yet-redeemed token ids as wl:{tokenId} -> email.
type WhitelistRepository struct {
	store  ports.KeyValueStore
	logger *logrus.Logger
}

func NewWhitelistRepository(store ports.KeyValueStore, logger *logrus.Logger) *WhitelistRepository {
	return &WhitelistRepository{store: store, logger: logger}
}

// Ensure WhitelistRepository implements ports.RedemptionWhitelist
var _ ports.RedemptionWhitelist = (*WhitelistRepository)(nil)

func whitelistKey(tokenID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", whitelistKeyPrefix, tokenID.String())
}

func (r *WhitelistRepository) Put(ctx context.Context, tokenID uuid.UUID, email string, ttl time.Duration) error {
	if err := r.store.SetWithTTL(ctx, whitelistKey(tokenID), email, ttl); err != nil {
		return fmt.Errorf("failed to whitelist token: %w", err)
	}
	return nil
}

// Consume pops the entry. Exactly one of any concurrent callers gets ok=true.
func (r *WhitelistRepository) Consume(ctx context.Context, tokenID uuid.UUID) (string, bool, error) {
	email, ok, err := r.store.GetAndDelete(ctx, whitelistKey(tokenID))
	if err != nil {
		return "", false, fmt.Errorf("failed to consume whitelisted token: %w", err)
	}
	if !ok && r.logger != nil {
		r.logger.WithField("token_id", tokenID).Debug("whitelist: token absent (redeemed or expired)")
	}
	return email, ok, nil
}
