package shell

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

// callbackPath is the deep-link route the backend bounce page targets.
const callbackPath = "social-callback"

// SocialConnections is the app-side controller for linked platforms.
// It mirrors the server's connection state, runs the connect flow
// through the embedded browser, and reacts to the OAuth deep link.
type SocialConnections struct {
	api     *APIClient
	browser Browser
	logger  *slog.Logger

	mu          sync.RWMutex
	connections map[domain.Platform]*domain.ConnectionSummary
	syncing     map[domain.Platform]bool

	// verifiers holds the PKCE verifier per in-flight flow as a
	// client-side fallback; the server keeps its own copy with the
	// state row.
	verifiers map[domain.Platform]string

	lastError string

	unsubscribe func()
}

// NewSocialConnections wires the controller to the deep-link registry.
// Call Close to unsubscribe.
func NewSocialConnections(api *APIClient, browser Browser, links *DeepLinkRegistry, logger *slog.Logger) *SocialConnections {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SocialConnections{
		api:         api,
		browser:     browser,
		logger:      logger,
		connections: make(map[domain.Platform]*domain.ConnectionSummary),
		syncing:     make(map[domain.Platform]bool),
		verifiers:   make(map[domain.Platform]string),
	}
	s.unsubscribe = links.Subscribe(s.handleDeepLink)
	return s
}

// Refresh reloads connection state from the backend.
func (s *SocialConnections) Refresh(ctx context.Context) error {
	summaries, err := s.api.Connections(ctx)
	if err != nil {
		return fmt.Errorf("fetch connections: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections = make(map[domain.Platform]*domain.ConnectionSummary, len(summaries))
	for _, summary := range summaries {
		s.connections[summary.Platform] = summary
	}
	return nil
}

// IsConnected reports whether the platform has a live connection.
func (s *SocialConnections) IsConnected(platform domain.Platform) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.connections[platform]
	return ok
}

// GetConnection returns the platform's connection summary, or nil.
func (s *SocialConnections) GetConnection(platform domain.Platform) *domain.ConnectionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connections[platform]
}

// Syncing reports whether a sync is in flight for the platform.
func (s *SocialConnections) Syncing(platform domain.Platform) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncing[platform]
}

// LastError returns the most recent connect failure message, cleared
// on the next successful connect.
func (s *SocialConnections) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// Connect starts the OAuth flow: fetch the authorization URL and open
// it in the embedded browser. Completion arrives later via deep link.
func (s *SocialConnections) Connect(ctx context.Context, platform domain.Platform) error {
	resp, err := s.api.Authorize(ctx, platform)
	if err != nil {
		return fmt.Errorf("start authorization: %w", err)
	}

	s.mu.Lock()
	if resp.CodeVerifier != "" {
		s.verifiers[platform] = resp.CodeVerifier
	}
	s.mu.Unlock()

	if err := s.browser.Open(resp.URL); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}

// Sync imports the platform's recent content and returns the counts.
func (s *SocialConnections) Sync(ctx context.Context, platform domain.Platform) (*domain.SyncResult, error) {
	s.mu.Lock()
	if s.syncing[platform] {
		s.mu.Unlock()
		return nil, fmt.Errorf("%s sync already in progress", platform)
	}
	s.syncing[platform] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.syncing, platform)
		s.mu.Unlock()
	}()

	result, err := s.api.Sync(ctx, platform)
	if err != nil {
		return nil, err
	}

	// A successful sync proves the connection is live; refresh to pick
	// up the new last_synced_at.
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("refresh after sync failed", "platform", platform, "error", err)
	}
	return result, nil
}

// Disconnect removes the platform connection on the backend and
// locally.
func (s *SocialConnections) Disconnect(ctx context.Context, platform domain.Platform) error {
	if err := s.api.Disconnect(ctx, platform); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.connections, platform)
	delete(s.verifiers, platform)
	s.mu.Unlock()
	return nil
}

// Close unsubscribes from the deep-link registry.
func (s *SocialConnections) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// handleDeepLink reacts to the OAuth bounce. Any social-callback link
// closes the embedded browser; a success refetches connection state,
// a failure surfaces the message.
func (s *SocialConnections) handleDeepLink(link string) {
	u, err := url.Parse(link)
	if err != nil {
		return
	}
	if !strings.Contains(u.Host+u.Path, callbackPath) {
		return
	}

	s.browser.Close()

	q := u.Query()
	platform, perr := domain.ParsePlatform(q.Get("platform"))
	status := q.Get("status")

	if status == "success" {
		s.mu.Lock()
		s.lastError = ""
		if perr == nil {
			delete(s.verifiers, platform)
		}
		s.mu.Unlock()

		if err := s.Refresh(context.Background()); err != nil {
			s.logger.Warn("refresh after connect failed", "error", err)
		}
		return
	}

	msg := q.Get("message")
	if msg == "" {
		msg = "Connection failed"
	}
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
	s.logger.Info("platform connect failed", "platform", q.Get("platform"), "message", msg)
}
