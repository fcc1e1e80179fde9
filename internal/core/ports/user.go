package ports

import "context"

// UserDirectory answers whether an account already exists for an email.
// It is a UX fast-path at send time; registration enforces uniqueness itself.
type UserDirectory interface {
	EmailExists(ctx context.Context, email string) (bool, error)
}
