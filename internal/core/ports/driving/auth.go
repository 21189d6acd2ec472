package driving

import (
	"context"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

// AuthService handles authentication and token validation.
type AuthService interface {
	// Authenticate validates credentials and creates a session.
	Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// ValidateToken validates a bearer token and returns the auth context.
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// Logout invalidates the session behind a token.
	Logout(ctx context.Context, token string) error
}
