package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driven"
)

// OAuthStateStore persists CSRF state for in-flight OAuth flows. One row
// per (user, platform): starting a new flow replaces any abandoned one.
type OAuthStateStore struct {
	db *DB
}

var _ driven.OAuthStateStore = (*OAuthStateStore)(nil)

func NewOAuthStateStore(db *DB) *OAuthStateStore {
	return &OAuthStateStore{db: db}
}

// Save stores the state row, replacing any previous row for the same
// user and platform.
func (s *OAuthStateStore) Save(ctx context.Context, state *driven.OAuthState) error {
	query := `
		INSERT INTO oauth_states (user_id, platform, state, code_verifier, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			state = EXCLUDED.state,
			code_verifier = EXCLUDED.code_verifier,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`

	_, err := s.db.ExecContext(ctx, query,
		state.UserID,
		string(state.Platform),
		state.State,
		NullString(state.CodeVerifier),
		state.CreatedAt,
		state.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// Consume atomically deletes and returns the row matching the given
// state value and platform, provided it has not expired. A missing,
// expired, or already-consumed state returns (nil, nil): the caller
// treats all three the same and must not distinguish them.
func (s *OAuthStateStore) Consume(ctx context.Context, state string, platform domain.Platform) (*driven.OAuthState, error) {
	query := `
		DELETE FROM oauth_states
		WHERE state = $1 AND platform = $2 AND expires_at > NOW()
		RETURNING user_id, platform, state, code_verifier, created_at, expires_at
	`

	row := s.db.QueryRowContext(ctx, query, state, string(platform))

	var st driven.OAuthState
	var verifier sql.NullString
	err := row.Scan(&st.UserID, &st.Platform, &st.State, &verifier, &st.CreatedAt, &st.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}
	st.CodeVerifier = verifier.String

	return &st, nil
}

// Cleanup removes expired rows. Consume already filters on expiry, so
// this only reclaims rows from abandoned flows.
func (s *OAuthStateStore) Cleanup(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM oauth_states WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("cleanup oauth states: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup oauth states: %w", err)
	}
	return n, nil
}
