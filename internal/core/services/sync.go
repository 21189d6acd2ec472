package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driven"
	"github.com/engage-labs/engage-social/internal/core/ports/driving"
)

// Ensure syncService implements SyncService
var _ driving.SyncService = (*syncService)(nil)

// syncPageSize bounds one sync to the provider's most recent page.
// Sync is poll-and-diff over this window, not a full backfill.
const syncPageSize = 20

// SyncServiceConfig holds dependencies for the sync service.
type SyncServiceConfig struct {
	ConnectionStore driven.ConnectionStore
	ImportStore     driven.ImportStore
	PostStore       driven.PostStore
	Providers       driven.ProviderRegistry
	Logger          *slog.Logger
}

// syncService imports recent platform content into the local feed.
type syncService struct {
	connections driven.ConnectionStore
	imports     driven.ImportStore
	posts       driven.PostStore
	providers   driven.ProviderRegistry
	logger      *slog.Logger
}

// NewSyncService creates a new sync service.
func NewSyncService(cfg SyncServiceConfig) driving.SyncService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &syncService{
		connections: cfg.ConnectionStore,
		imports:     cfg.ImportStore,
		posts:       cfg.PostStore,
		providers:   cfg.Providers,
		logger:      logger,
	}
}

// Sync runs one poll-and-diff pass:
//  1. Load the connection, refreshing an expired token if possible
//  2. Fetch the most recent content page from the provider
//  3. Import items absent from the ledger, skipping known ones
//  4. Touch last_synced_at
//
// A single failing item is logged and left out of the counts; it does
// not abort the pass or mask the other items, and the next pass
// retries it.
func (s *syncService) Sync(ctx context.Context, userID string, platform domain.Platform) (*domain.SyncResult, error) {
	startTime := time.Now()

	conn, err := s.connections.Get(ctx, userID, platform)
	if err == domain.ErrNotFound {
		return nil, domain.ErrNotConnected
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}

	provider, err := s.providers.Get(platform)
	if err != nil {
		return nil, err
	}

	if conn.TokenExpired() {
		if err := s.refreshTokens(ctx, provider, conn); err != nil {
			return nil, err
		}
	}

	items, err := provider.ListRecentMedia(ctx, conn.AccessToken, syncPageSize)
	if err != nil {
		return nil, fmt.Errorf("list recent media: %w", err)
	}

	known, err := s.imports.ListPostIDs(ctx, conn.ID)
	if err != nil {
		return nil, fmt.Errorf("list imported posts: %w", err)
	}

	result := &domain.SyncResult{Total: len(items)}
	for _, item := range items {
		if _, ok := known[item.ID]; ok {
			result.Skipped++
			continue
		}

		if err := s.importItem(ctx, conn, item); err != nil {
			// Failures count in neither bucket: skipped means already
			// imported, so imported+skipped can fall short of total.
			s.logger.Warn("failed to import item",
				"platform", platform, "platform_post_id", item.ID, "error", err)
			continue
		}
		result.Imported++
	}
	result.Success = true

	if err := s.connections.TouchLastSynced(ctx, conn.ID); err != nil {
		s.logger.Warn("failed to update last synced", "connection_id", conn.ID, "error", err)
	}

	s.logger.Info("sync completed",
		"platform", platform,
		"user_id", userID,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"total", result.Total,
		"duration_seconds", time.Since(startTime).Seconds())

	return result, nil
}

// refreshTokens exchanges the stored refresh token for fresh tokens and
// persists them. Connections without a refresh token (Instagram) can
// only be reconnected by the user.
func (s *syncService) refreshTokens(ctx context.Context, provider driven.ProviderClient, conn *domain.SocialConnection) error {
	if conn.RefreshToken == "" {
		return domain.ErrTokenExpired
	}

	token, err := provider.RefreshToken(ctx, conn.RefreshToken)
	if err != nil {
		s.logger.Warn("token refresh failed",
			"platform", conn.Platform, "connection_id", conn.ID, "error", err)
		return domain.ErrTokenExpired
	}

	expiresIn := token.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = provider.DefaultTokenTTLSeconds()
	}
	expiresAt := time.Now().Add(time.Duration(expiresIn) * time.Second)

	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = conn.RefreshToken
	}

	if err := s.connections.UpdateTokens(ctx, conn.ID, token.AccessToken, refreshToken, expiresAt); err != nil {
		return fmt.Errorf("persist refreshed tokens: %w", err)
	}

	conn.AccessToken = token.AccessToken
	conn.RefreshToken = refreshToken
	conn.TokenExpiresAt = expiresAt

	s.logger.Info("token refreshed", "platform", conn.Platform, "connection_id", conn.ID)
	return nil
}

// importItem creates the local post with its media and records the
// ledger row.
func (s *syncService) importItem(ctx context.Context, conn *domain.SocialConnection, item *driven.ProviderMedia) error {
	content := item.Caption
	if content == "" {
		content = "Shared from " + conn.Platform.DisplayName()
	}

	post := &domain.Post{
		AuthorID: conn.UserID,
		Content:  content,
	}
	var media *domain.Media
	if item.MediaURL != "" {
		media = &domain.Media{
			URL:  item.MediaURL,
			Type: item.Type,
		}
	}
	if err := s.posts.CreatePost(ctx, post, media); err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	imp := &domain.SocialImport{
		ConnectionID:   conn.ID,
		PlatformPostID: item.ID,
		PostID:         post.ID,
		MediaURL:       item.MediaURL,
		Caption:        item.Caption,
		Permalink:      item.Permalink,
		MediaType:      item.Type,
	}
	if err := s.imports.Record(ctx, imp); err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}
