package driving

import (
	"context"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

// SyncService imports recent remote content into the local feed.
type SyncService interface {
	// Sync fetches the platform's most recent content page for the
	// user's connection, imports items not yet in the ledger, and
	// returns counts. Fails with domain.ErrNotConnected or
	// domain.ErrTokenExpired before touching the provider.
	Sync(ctx context.Context, userID string, platform domain.Platform) (*domain.SyncResult, error)
}

// ConnectionService manages established social connections.
type ConnectionService interface {
	// List returns the user's connections without token material.
	List(ctx context.Context, userID string) ([]*domain.ConnectionSummary, error)

	// Disconnect deletes the user's connection for a platform along
	// with its import ledger rows. Returns domain.ErrNotConnected when
	// there is nothing to remove, so callers can tell "removed" from
	// "never existed".
	Disconnect(ctx context.Context, userID string, platform domain.Platform) error
}
