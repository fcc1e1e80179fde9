package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kugather/signup-verification/internal/core/ports"
)

var sf singleflight.Group

// CachingUserRepository decorates a UserDirectory with a positive-only cache:
// an email that has an account keeps it, while a negative answer must be
// re-read so a fresh registration is noticed immediately.
type CachingUserRepository struct {
	base  ports.UserDirectory
	cache ports.Cache
	ttl   time.Duration
}

func NewCachingUserRepository(base ports.UserDirectory, cache ports.Cache, ttl time.Duration) *CachingUserRepository {
	return &CachingUserRepository{base: base, cache: cache, ttl: ttl}
}

var _ ports.UserDirectory = (*CachingUserRepository)(nil)

func userExistsKey(email string) string {
	return "user:exists:" + strings.ToLower(email)
}

func (r *CachingUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	key := userExistsKey(email)
	if r.cache != nil {
		if _, ok, err := r.cache.Get(ctx, key); err == nil && ok {
			return true, nil
		}
	}

	// shared by coalesced callers; must not inherit one caller's cancellation
	res, err, _ := sf.Do(key, func() (any, error) {
		return r.base.EmailExists(context.WithoutCancel(ctx), email)
	})
	if err != nil {
		return false, err
	}
	exists, ok := res.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected type from singleflight result")
	}

	if exists && r.cache != nil {
		_ = r.cache.Set(ctx, key, []byte("1"), r.ttl)
	}
	return exists, nil
}
