package driven

import (
	"context"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

// ImportStore is the dedup ledger of imported remote content.
// (ConnectionID, PlatformPostID) is unique; concurrent inserts of the
// same pair must not error, the database constraint absorbs the race.
type ImportStore interface {
	// Record inserts one import row. A duplicate
	// (connection, platform post) pair is silently ignored.
	Record(ctx context.Context, imp *domain.SocialImport) error

	// ListPostIDs returns the platform post IDs already imported for a
	// connection.
	ListPostIDs(ctx context.Context, connectionID string) (map[string]struct{}, error)

	// DeleteByConnection removes all import rows for a connection.
	DeleteByConnection(ctx context.Context, connectionID string) error
}
