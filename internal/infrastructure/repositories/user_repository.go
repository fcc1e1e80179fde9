package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kugather/signup-verification/internal/core/ports"
	"github.com/kugather/signup-verification/internal/infrastructure/db"
)

// UserRepository answers account-existence questions from the users table.
type UserRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(database *db.Database, logger *logrus.Logger) *UserRepository {
	return &UserRepository{
		db:     database,
		logger: logger,
	}
}

var _ ports.UserDirectory = (*UserRepository)(nil)

// EmailExists reports whether an account is registered for email (case-insensitive).
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = $1)`

	var exists bool
	if err := r.db.DB.GetContext(ctx, &exists, query, strings.ToLower(email)); err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"email": email}).WithError(err).Error("db: failed to check email existence")
		}
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// NoUserDirectory reports that no account exists. It backs
// USER_DIRECTORY_DRIVER=none, where registration owns uniqueness alone.
type NoUserDirectory struct{}

func (NoUserDirectory) EmailExists(context.Context, string) (bool, error) { return false, nil }
