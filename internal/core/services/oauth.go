package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driven"
	"github.com/engage-labs/engage-social/internal/core/ports/driving"
)

// Ensure oauthService implements OAuthService
var _ driving.OAuthService = (*oauthService)(nil)

// stateTTL bounds how long an authorization flow can stay open.
const stateTTL = 10 * time.Minute

// OAuthServiceConfig holds dependencies for the OAuth service.
type OAuthServiceConfig struct {
	StateStore      driven.OAuthStateStore
	ConnectionStore driven.ConnectionStore
	Providers       driven.ProviderRegistry
	Logger          *slog.Logger
}

// oauthService implements the OAuthService interface.
type oauthService struct {
	states      driven.OAuthStateStore
	connections driven.ConnectionStore
	providers   driven.ProviderRegistry
	logger      *slog.Logger
}

// NewOAuthService creates a new OAuth service.
func NewOAuthService(cfg OAuthServiceConfig) driving.OAuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &oauthService{
		states:      cfg.StateStore,
		connections: cfg.ConnectionStore,
		providers:   cfg.Providers,
		logger:      logger,
	}
}

// Authorize starts an authorization flow for an authenticated user.
// It generates CSRF state (plus a PKCE verifier where the platform
// requires one), stores both server-side, and returns the provider URL.
func (s *oauthService) Authorize(ctx context.Context, userID string, platform domain.Platform) (*driving.AuthorizeResponse, error) {
	provider, err := s.providers.Get(platform)
	if err != nil {
		return nil, err
	}

	state, err := randomHex(32)
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	var codeVerifier, codeChallenge string
	if provider.UsesPKCE() {
		codeVerifier, err = randomHex(32)
		if err != nil {
			return nil, fmt.Errorf("generate code verifier: %w", err)
		}
		codeChallenge = generateCodeChallenge(codeVerifier)
	}

	// Store state for validation during callback. Saving replaces any
	// abandoned flow for the same user and platform.
	now := time.Now()
	oauthState := &driven.OAuthState{
		State:        state,
		UserID:       userID,
		Platform:     platform,
		CodeVerifier: codeVerifier,
		CreatedAt:    now,
		ExpiresAt:    now.Add(stateTTL),
	}
	if err := s.states.Save(ctx, oauthState); err != nil {
		return nil, fmt.Errorf("save oauth state: %w", err)
	}

	return &driving.AuthorizeResponse{
		URL:          provider.BuildAuthURL(state, codeChallenge),
		State:        state,
		CodeVerifier: codeVerifier,
	}, nil
}

// Callback completes the flow after the provider redirect. Every
// outcome, success or failure, becomes a CallbackResult: the transport
// layer always renders a deep-link bounce page, never an error page.
func (s *oauthService) Callback(ctx context.Context, req driving.CallbackRequest) *driving.CallbackResult {
	fail := func(msg string) *driving.CallbackResult {
		return &driving.CallbackResult{Success: false, Platform: req.Platform, Message: msg}
	}

	// User denied or the provider errored before issuing a code. The
	// state row, if any, is left to expire.
	if req.Error != "" {
		s.logger.Info("oauth callback denied",
			"platform", req.Platform, "error", req.Error)
		if req.Error == "access_denied" {
			return fail("Authorization was cancelled")
		}
		// The description is provider-supplied text meant for the
		// user, not an internal error, so it rides the deep link.
		if req.ErrorDescription != "" {
			return fail(req.ErrorDescription)
		}
		return fail("Authorization failed")
	}
	if req.Code == "" || req.State == "" {
		return fail("Missing authorization code or state")
	}

	// Validate and consume state before touching the provider.
	// Single-use: a replayed callback finds nothing.
	oauthState, err := s.states.Consume(ctx, req.State, req.Platform)
	if err != nil {
		s.logger.Error("consume oauth state", "platform", req.Platform, "error", err)
		return fail("Authorization failed")
	}
	if oauthState == nil {
		return fail("Invalid or expired authorization state")
	}

	provider, err := s.providers.Get(req.Platform)
	if err != nil {
		return fail("Platform is not configured")
	}

	codeVerifier := oauthState.CodeVerifier
	if codeVerifier == "" {
		codeVerifier = req.CodeVerifier
	}

	token, err := provider.ExchangeCode(ctx, req.Code, codeVerifier)
	if err != nil {
		s.logger.Error("token exchange failed",
			"platform", req.Platform, "user_id", oauthState.UserID, "error", err)
		return fail("Failed to exchange authorization code")
	}

	expiresIn := token.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = provider.DefaultTokenTTLSeconds()
	}

	conn := &domain.SocialConnection{
		UserID:         oauthState.UserID,
		Platform:       req.Platform,
		PlatformUserID: token.PlatformUserID,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenExpiresAt: time.Now().Add(time.Duration(expiresIn) * time.Second),
		Scopes:         token.Scopes,
	}
	if len(conn.Scopes) == 0 {
		conn.Scopes = provider.Scopes()
	}

	// Profile fetch is best effort: a connection with tokens but no
	// username is still usable and can backfill on the next sync.
	if profile, err := provider.GetProfile(ctx, token.AccessToken); err != nil {
		s.logger.Warn("profile fetch failed",
			"platform", req.Platform, "user_id", oauthState.UserID, "error", err)
	} else {
		if profile.PlatformUserID != "" {
			conn.PlatformUserID = profile.PlatformUserID
		}
		conn.Username = profile.Username
		conn.DisplayName = profile.DisplayName
		conn.ProfilePicture = profile.AvatarURL
	}

	if err := s.connections.Upsert(ctx, conn); err != nil {
		s.logger.Error("save connection",
			"platform", req.Platform, "user_id", oauthState.UserID, "error", err)
		return fail("Failed to save connection")
	}

	s.logger.Info("platform connected",
		"platform", req.Platform, "user_id", oauthState.UserID, "connection_id", conn.ID)

	return &driving.CallbackResult{
		Success:  true,
		Platform: req.Platform,
		Message:  req.Platform.DisplayName() + " account connected",
	}
}

// randomHex returns the hex encoding of n random bytes.
func randomHex(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// generateCodeChallenge creates a PKCE code challenge from a verifier (S256 method).
func generateCodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
