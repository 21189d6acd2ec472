package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driven"
)

// ImportStore is the postgres-backed import ledger. The unique
// (connection_id, platform_post_id) constraint is the only dedup
// mechanism; there is no application-level locking.
type ImportStore struct {
	db *DB
}

var _ driven.ImportStore = (*ImportStore)(nil)

func NewImportStore(db *DB) *ImportStore {
	return &ImportStore{db: db}
}

// Record inserts one ledger row. A concurrent sync that already
// recorded the same remote item makes this a no-op, not an error.
func (s *ImportStore) Record(ctx context.Context, imp *domain.SocialImport) error {
	if imp.ID == "" {
		imp.ID = uuid.NewString()
	}
	if imp.CreatedAt.IsZero() {
		imp.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO social_imports (
			id, connection_id, platform_post_id, post_id,
			media_url, caption, permalink, media_type, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (connection_id, platform_post_id) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query,
		imp.ID,
		imp.ConnectionID,
		imp.PlatformPostID,
		NullString(imp.PostID),
		NullString(imp.MediaURL),
		NullString(imp.Caption),
		NullString(imp.Permalink),
		string(imp.MediaType),
		imp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

// ListPostIDs returns the remote post IDs already imported for a
// connection, as a set.
func (s *ImportStore) ListPostIDs(ctx context.Context, connectionID string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT platform_post_id FROM social_imports WHERE connection_id = $1`, connectionID)
	if err != nil {
		return nil, fmt.Errorf("list imported post ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan imported post id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list imported post ids: %w", err)
	}
	return ids, nil
}

// DeleteByConnection clears the ledger for a connection. Called on
// disconnect before the connection row itself is removed.
func (s *ImportStore) DeleteByConnection(ctx context.Context, connectionID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM social_imports WHERE connection_id = $1`, connectionID)
	if err != nil {
		return fmt.Errorf("delete imports: %w", err)
	}
	return nil
}
