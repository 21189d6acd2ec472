package driving

import (
	"context"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

// OAuthService drives the OAuth connect flow for social platforms.
type OAuthService interface {
	// Authorize starts the authorization flow for an authenticated
	// user. It persists a CSRF state (and the PKCE verifier where the
	// platform requires one) and returns the provider URL to open in an
	// embedded browser.
	Authorize(ctx context.Context, userID string, platform domain.Platform) (*AuthorizeResponse, error)

	// Callback completes the flow after the provider redirect. It never
	// returns an error to the transport layer: every outcome is a
	// CallbackResult describing the deep link to bounce the app to.
	Callback(ctx context.Context, req CallbackRequest) *CallbackResult
}

// AuthorizeResponse contains the authorization URL and CSRF state.
// @Description Response containing the OAuth authorization URL
type AuthorizeResponse struct {
	// URL is the provider authorization URL to open in the embedded browser.
	URL string `json:"url" example:"https://www.tiktok.com/v2/auth/authorize/?client_key=..."`

	// State is the CSRF token that will be returned in the callback.
	State string `json:"state" example:"3f1c9a..."`

	// CodeVerifier is the PKCE verifier, present only for platforms
	// that require PKCE. The client keeps it in memory as a fallback;
	// the server also retains it alongside the state.
	CodeVerifier string `json:"code_verifier,omitempty"`
}

// CallbackRequest represents the provider redirect back to us.
type CallbackRequest struct {
	Platform         domain.Platform
	Code             string
	State            string
	Error            string
	ErrorDescription string

	// CodeVerifier is an optional client-supplied PKCE verifier
	// (TikTok POST variant). When empty the verifier stored with the
	// state record is used.
	CodeVerifier string
}

// CallbackResult describes the deep link handed back to the app shell.
type CallbackResult struct {
	// Success is true when a connection was persisted.
	Success bool

	// Platform echoes the provider, for the deep link query.
	Platform domain.Platform

	// Message is a short human-readable status. Never a raw internal
	// error.
	Message string
}
