package driven

import (
	"context"
	"time"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

// ConnectionStore persists social connections. Implementations encrypt
// token fields before writing and decrypt them on read; plaintext
// tokens never reach storage.
type ConnectionStore interface {
	// Upsert creates or replaces the connection for
	// (conn.UserID, conn.Platform) and fills in conn.ID on insert.
	Upsert(ctx context.Context, conn *domain.SocialConnection) error

	// Get retrieves the connection for (userID, platform) with
	// decrypted tokens. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, userID string, platform domain.Platform) (*domain.SocialConnection, error)

	// ListByUser returns all connections for a user, tokens decrypted.
	ListByUser(ctx context.Context, userID string) ([]*domain.SocialConnection, error)

	// UpdateTokens replaces the stored token blobs and expiry after a
	// refresh.
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error

	// ListDueForSync returns up to limit connections never synced or
	// last synced before the cutoff, staleness first. Used by the
	// background refresh scheduler.
	ListDueForSync(ctx context.Context, cutoff time.Time, limit int) ([]*domain.SocialConnection, error)

	// TouchLastSynced sets last_synced_at to now.
	TouchLastSynced(ctx context.Context, id string) error

	// Delete removes the connection row.
	// Returns domain.ErrNotFound if no row was deleted.
	Delete(ctx context.Context, id string) error
}
