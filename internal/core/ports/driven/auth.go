package driven

import "github.com/engage-labs/engage-social/internal/core/domain"

// AuthAdapter covers the cryptographic side of authentication:
// password hashing and session token signing. Session persistence
// lives in SessionStore.
type AuthAdapter interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, hash string) bool

	// GenerateToken signs the claims; ParseToken verifies the
	// signature and returns them. ParseToken reports expiry with
	// ErrTokenExpired and any other defect with ErrTokenInvalid.
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
