package ports

import "context"

// HealthChecker abstracts a dependency probe for GET /health.
// Check returns an error if the dependency is unusable.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
