package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driven"
	"github.com/engage-labs/engage-social/internal/core/ports/driving"
)

// Ensure connectionService implements ConnectionService
var _ driving.ConnectionService = (*connectionService)(nil)

// connectionService manages established social connections.
type connectionService struct {
	connections driven.ConnectionStore
	imports     driven.ImportStore
	logger      *slog.Logger
}

// NewConnectionService creates a new connection service.
func NewConnectionService(connections driven.ConnectionStore, imports driven.ImportStore, logger *slog.Logger) driving.ConnectionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &connectionService{
		connections: connections,
		imports:     imports,
		logger:      logger,
	}
}

// List returns the user's connections without token material.
func (s *connectionService) List(ctx context.Context, userID string) ([]*domain.ConnectionSummary, error) {
	conns, err := s.connections.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	summaries := make([]*domain.ConnectionSummary, 0, len(conns))
	for _, conn := range conns {
		summaries = append(summaries, conn.ToSummary())
	}
	return summaries, nil
}

// Disconnect removes the user's connection for a platform. The import
// ledger goes first so a failed connection delete can be retried.
// Already-imported feed posts survive the disconnect.
func (s *connectionService) Disconnect(ctx context.Context, userID string, platform domain.Platform) error {
	conn, err := s.connections.Get(ctx, userID, platform)
	if err == domain.ErrNotFound {
		return domain.ErrNotConnected
	}
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}

	if err := s.imports.DeleteByConnection(ctx, conn.ID); err != nil {
		return fmt.Errorf("delete import ledger: %w", err)
	}

	if err := s.connections.Delete(ctx, conn.ID); err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}

	s.logger.Info("platform disconnected",
		"platform", platform, "user_id", userID, "connection_id", conn.ID)
	return nil
}
