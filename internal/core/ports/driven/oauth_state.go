package driven

import (
	"context"
	"time"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

// OAuthState represents a pending OAuth authorization flow state.
// Used for CSRF protection and PKCE code verifier storage.
type OAuthState struct {
	// State is a cryptographically random string used for CSRF protection.
	State string

	// UserID is the local user who initiated the flow.
	UserID string

	// Platform is the provider the flow targets.
	Platform domain.Platform

	// CodeVerifier is the PKCE code verifier (plain text, not hashed).
	// Empty for platforms that do not use PKCE. Persisting it here lets
	// the callback complete even if the client lost it mid-flow.
	CodeVerifier string

	// CreatedAt is when the state was created.
	CreatedAt time.Time

	// ExpiresAt is when the state expires (typically 10 minutes).
	ExpiresAt time.Time
}

// OAuthStateStore manages OAuth flow state for CSRF protection.
// States are single-use and expire after a short period. Only one live
// state exists per (user, platform); a new Save replaces the prior one.
type OAuthStateStore interface {
	// Save upserts the OAuth state for (state.UserID, state.Platform).
	Save(ctx context.Context, state *OAuthState) error

	// Consume atomically retrieves and deletes the state matching both
	// token and platform. Expired rows are treated exactly like missing
	// ones: the caller cannot tell them apart.
	// Returns nil, nil if the state doesn't exist or has expired.
	Consume(ctx context.Context, state string, platform domain.Platform) (*OAuthState, error)

	// Cleanup removes expired states. Safe to call periodically.
	Cleanup(ctx context.Context) (int64, error)
}
