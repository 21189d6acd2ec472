package driven

import (
	"context"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

// UserStore handles user persistence.
type UserStore interface {
	// Save creates or updates a user.
	Save(ctx context.Context, user *domain.User) error

	// Get retrieves a user by ID.
	Get(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdateLastLogin sets the last login timestamp to now.
	UpdateLastLogin(ctx context.Context, id string) error
}
