package driven

import (
	"context"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

// OAuthToken is a provider token response, normalized across platforms.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string

	// ExpiresIn is the token lifetime in seconds. Clients fall back to
	// the platform default when the provider omits it.
	ExpiresIn int

	Scopes []string

	// PlatformUserID is the provider-side account ID when the token
	// endpoint reports it (Instagram user_id, TikTok open_id).
	PlatformUserID string
}

// ProviderProfile is the provider-side identity of a connected account.
type ProviderProfile struct {
	PlatformUserID string
	Username       string
	DisplayName    string
	AvatarURL      string
}

// ProviderMedia is one piece of remote content eligible for import.
type ProviderMedia struct {
	// ID is the provider-native content identifier (the dedup key).
	ID string

	// Caption is the post caption or video description.
	Caption string

	// MediaURL is the displayable asset. For videos this is the
	// thumbnail, never the raw stream.
	MediaURL string

	// Permalink points back to the content on the platform.
	Permalink string

	Type domain.MediaType
}

// ProviderClient is the per-platform OAuth + content API surface.
// Authorize/Callback/Sync logic is shared; only the wire details vary.
type ProviderClient interface {
	// Platform returns the platform this client serves.
	Platform() domain.Platform

	// BuildAuthURL constructs the provider authorization URL.
	// codeChallenge is empty for platforms that do not use PKCE.
	BuildAuthURL(state, codeChallenge string) string

	// ExchangeCode trades an authorization code for tokens.
	// codeVerifier is empty for platforms that do not use PKCE.
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*OAuthToken, error)

	// RefreshToken exchanges a refresh token for fresh tokens.
	// Platforms without refresh support return an error.
	RefreshToken(ctx context.Context, refreshToken string) (*OAuthToken, error)

	// GetProfile fetches the account identity for an access token.
	GetProfile(ctx context.Context, accessToken string) (*ProviderProfile, error)

	// ListRecentMedia fetches the most recent content page, bounded by
	// limit. Order is provider-returned, newest first.
	ListRecentMedia(ctx context.Context, accessToken string, limit int) ([]*ProviderMedia, error)

	// UsesPKCE reports whether the authorization flow carries an S256
	// code challenge.
	UsesPKCE() bool

	// Scopes returns the scopes requested at authorization.
	Scopes() []string

	// DefaultTokenTTLSeconds is the expires_in fallback when the token
	// endpoint omits one.
	DefaultTokenTTLSeconds() int
}

// ProviderRegistry resolves platform tags to configured clients.
type ProviderRegistry interface {
	// Get returns the client for a platform, or
	// domain.ErrProviderNotConfigured when its OAuth app credentials
	// are absent.
	Get(platform domain.Platform) (ProviderClient, error)
}
