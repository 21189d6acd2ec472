package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driven"
)

// ConnectionStore persists social connections with token columns
// encrypted at rest. All reads decrypt back to plaintext before the
// connection leaves this package.
type ConnectionStore struct {
	db     *DB
	cipher *TokenCipher
}

var _ driven.ConnectionStore = (*ConnectionStore)(nil)

func NewConnectionStore(db *DB, cipher *TokenCipher) *ConnectionStore {
	return &ConnectionStore{db: db, cipher: cipher}
}

// Upsert creates or replaces the connection for (UserID, Platform).
// Reconnecting overwrites identity and token fields but keeps the row
// identity, so the import ledger survives a reconnect.
func (s *ConnectionStore) Upsert(ctx context.Context, conn *domain.SocialConnection) error {
	encAccess, err := s.cipher.Encrypt(conn.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}

	var encRefresh sql.NullString
	if conn.RefreshToken != "" {
		enc, err := s.cipher.Encrypt(conn.RefreshToken)
		if err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
		encRefresh = sql.NullString{String: enc, Valid: true}
	}

	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	now := time.Now()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now

	query := `
		INSERT INTO social_connections (
			id, user_id, platform, platform_user_id, username, display_name,
			profile_picture, access_token, refresh_token, token_expires_at,
			scopes, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			platform_user_id = EXCLUDED.platform_user_id,
			username = EXCLUDED.username,
			display_name = EXCLUDED.display_name,
			profile_picture = EXCLUDED.profile_picture,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			scopes = EXCLUDED.scopes,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	row := s.db.QueryRowContext(ctx, query,
		conn.ID,
		conn.UserID,
		string(conn.Platform),
		conn.PlatformUserID,
		conn.Username,
		conn.DisplayName,
		conn.ProfilePicture,
		encAccess,
		encRefresh,
		conn.TokenExpiresAt,
		pq.Array(conn.Scopes),
		conn.CreatedAt,
		conn.UpdatedAt,
	)
	if err := row.Scan(&conn.ID, &conn.CreatedAt); err != nil {
		return fmt.Errorf("upsert connection: %w", err)
	}
	return nil
}

// Get retrieves the connection for (userID, platform), tokens decrypted.
func (s *ConnectionStore) Get(ctx context.Context, userID string, platform domain.Platform) (*domain.SocialConnection, error) {
	query := selectConnection + ` WHERE user_id = $1 AND platform = $2`

	conn, err := s.scanConnection(s.db.QueryRowContext(ctx, query, userID, string(platform)))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return conn, nil
}

// ListByUser returns all connections for a user ordered by platform.
func (s *ConnectionStore) ListByUser(ctx context.Context, userID string) ([]*domain.SocialConnection, error) {
	query := selectConnection + ` WHERE user_id = $1 ORDER BY platform`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var conns []*domain.SocialConnection
	for rows.Next() {
		conn, err := s.scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		conns = append(conns, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return conns, nil
}

// ListDueForSync returns connections never synced or last synced
// before the cutoff, stalest first.
func (s *ConnectionStore) ListDueForSync(ctx context.Context, cutoff time.Time, limit int) ([]*domain.SocialConnection, error) {
	query := selectConnection + `
		WHERE last_synced_at IS NULL OR last_synced_at < $1
		ORDER BY last_synced_at ASC NULLS FIRST
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list due connections: %w", err)
	}
	defer rows.Close()

	var conns []*domain.SocialConnection
	for rows.Next() {
		conn, err := s.scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		conns = append(conns, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list due connections: %w", err)
	}
	return conns, nil
}

// UpdateTokens replaces the stored tokens and expiry after a refresh.
func (s *ConnectionStore) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	encAccess, err := s.cipher.Encrypt(accessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}

	var encRefresh sql.NullString
	if refreshToken != "" {
		enc, err := s.cipher.Encrypt(refreshToken)
		if err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
		encRefresh = sql.NullString{String: enc, Valid: true}
	}

	query := `
		UPDATE social_connections
		SET access_token = $2, refresh_token = $3, token_expires_at = $4, updated_at = NOW()
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, id, encAccess, encRefresh, expiresAt)
	if err != nil {
		return fmt.Errorf("update tokens: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TouchLastSynced records a completed sync.
func (s *ConnectionStore) TouchLastSynced(ctx context.Context, id string) error {
	query := `UPDATE social_connections SET last_synced_at = NOW(), updated_at = NOW() WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("touch last synced: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the connection. Ledger rows go with it via cascade.
func (s *ConnectionStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM social_connections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const selectConnection = `
	SELECT id, user_id, platform, platform_user_id, username, display_name,
	       profile_picture, access_token, refresh_token, token_expires_at,
	       scopes, last_synced_at, created_at, updated_at
	FROM social_connections`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *ConnectionStore) scanConnection(row rowScanner) (*domain.SocialConnection, error) {
	var conn domain.SocialConnection
	var encAccess string
	var encRefresh sql.NullString
	var lastSynced sql.NullTime
	var scopes pq.StringArray

	err := row.Scan(
		&conn.ID,
		&conn.UserID,
		&conn.Platform,
		&conn.PlatformUserID,
		&conn.Username,
		&conn.DisplayName,
		&conn.ProfilePicture,
		&encAccess,
		&encRefresh,
		&conn.TokenExpiresAt,
		&scopes,
		&lastSynced,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	conn.AccessToken, err = s.cipher.Decrypt(encAccess)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}
	if encRefresh.Valid {
		conn.RefreshToken, err = s.cipher.Decrypt(encRefresh.String)
		if err != nil {
			return nil, fmt.Errorf("decrypt refresh token: %w", err)
		}
	}
	conn.Scopes = []string(scopes)
	if lastSynced.Valid {
		conn.LastSyncedAt = &lastSynced.Time
	}
	return &conn, nil
}
