package mocks

import (
	"context"
	"fmt"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driven"
)

// MockProviderClient is a scriptable ProviderClient.
type MockProviderClient struct {
	PlatformValue domain.Platform
	PKCE          bool
	ScopeList     []string
	DefaultTTL    int

	AuthURL string

	ExchangeToken *driven.OAuthToken
	ExchangeErr   error
	// ExchangedCode and ExchangedVerifier capture the last exchange call.
	ExchangedCode     string
	ExchangedVerifier string

	RefreshResult *driven.OAuthToken
	RefreshErr    error
	RefreshCalls  int

	Profile    *driven.ProviderProfile
	ProfileErr error

	MediaItems []*driven.ProviderMedia
	MediaErr   error
	// MediaLimit captures the limit passed to ListRecentMedia.
	MediaLimit int
}

var _ driven.ProviderClient = (*MockProviderClient)(nil)

func (m *MockProviderClient) Platform() domain.Platform { return m.PlatformValue }

func (m *MockProviderClient) UsesPKCE() bool { return m.PKCE }

func (m *MockProviderClient) Scopes() []string { return m.ScopeList }

func (m *MockProviderClient) DefaultTokenTTLSeconds() int {
	if m.DefaultTTL == 0 {
		return 3600
	}
	return m.DefaultTTL
}

func (m *MockProviderClient) BuildAuthURL(state, codeChallenge string) string {
	if m.AuthURL != "" {
		return m.AuthURL
	}
	return fmt.Sprintf("https://provider.example/authorize?state=%s&code_challenge=%s", state, codeChallenge)
}

func (m *MockProviderClient) ExchangeCode(ctx context.Context, code, codeVerifier string) (*driven.OAuthToken, error) {
	m.ExchangedCode = code
	m.ExchangedVerifier = codeVerifier
	if m.ExchangeErr != nil {
		return nil, m.ExchangeErr
	}
	return m.ExchangeToken, nil
}

func (m *MockProviderClient) RefreshToken(ctx context.Context, refreshToken string) (*driven.OAuthToken, error) {
	m.RefreshCalls++
	if m.RefreshErr != nil {
		return nil, m.RefreshErr
	}
	return m.RefreshResult, nil
}

func (m *MockProviderClient) GetProfile(ctx context.Context, accessToken string) (*driven.ProviderProfile, error) {
	if m.ProfileErr != nil {
		return nil, m.ProfileErr
	}
	return m.Profile, nil
}

func (m *MockProviderClient) ListRecentMedia(ctx context.Context, accessToken string, limit int) ([]*driven.ProviderMedia, error) {
	m.MediaLimit = limit
	if m.MediaErr != nil {
		return nil, m.MediaErr
	}
	if limit < len(m.MediaItems) {
		return m.MediaItems[:limit], nil
	}
	return m.MediaItems, nil
}

// MockProviderRegistry resolves platforms to scripted clients.
type MockProviderRegistry struct {
	Clients map[domain.Platform]driven.ProviderClient
}

var _ driven.ProviderRegistry = (*MockProviderRegistry)(nil)

func NewMockProviderRegistry(clients ...driven.ProviderClient) *MockProviderRegistry {
	m := &MockProviderRegistry{Clients: make(map[domain.Platform]driven.ProviderClient)}
	for _, c := range clients {
		m.Clients[c.Platform()] = c
	}
	return m
}

func (m *MockProviderRegistry) Get(platform domain.Platform) (driven.ProviderClient, error) {
	client, ok := m.Clients[platform]
	if !ok {
		return nil, domain.ErrProviderNotConfigured
	}
	return client, nil
}

// MockAuthAdapter is a trivially reversible AuthAdapter for tests.
type MockAuthAdapter struct {
	claims map[string]*domain.TokenClaims
}

var _ driven.AuthAdapter = (*MockAuthAdapter)(nil)

func NewMockAuthAdapter() *MockAuthAdapter {
	return &MockAuthAdapter{claims: make(map[string]*domain.TokenClaims)}
}

func (m *MockAuthAdapter) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func (m *MockAuthAdapter) VerifyPassword(password, hash string) bool {
	return hash == "hashed:"+password
}

func (m *MockAuthAdapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	token := fmt.Sprintf("token-%s-%s", claims.UserID, claims.SessionID)
	m.claims[token] = claims
	return token, nil
}

func (m *MockAuthAdapter) ParseToken(token string) (*domain.TokenClaims, error) {
	claims, ok := m.claims[token]
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}
