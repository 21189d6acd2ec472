// Package instagram implements the Instagram Basic Display OAuth flow
// and media API.
package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.ProviderClient = (*Client)(nil)

const (
	// shortLivedTTLSeconds applies when the long-lived exchange fails
	// and the short-lived token is kept.
	shortLivedTTLSeconds = 3600

	// longLivedTTLSeconds is the documented 60-day lifetime, used when
	// the exchange response omits expires_in.
	longLivedTTLSeconds = 5184000
)

// Client talks to the Instagram OAuth and Graph endpoints. Instagram
// does not use PKCE and issues no refresh token; an expired connection
// requires a full reconnect.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client

	// Overridable in tests.
	authBaseURL  string
	tokenBaseURL string
	graphBaseURL string
}

// NewClient creates an Instagram client from OAuth app credentials.
func NewClient(clientID, clientSecret, redirectURI string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		authBaseURL:  "https://api.instagram.com",
		tokenBaseURL: "https://api.instagram.com",
		graphBaseURL: "https://graph.instagram.com",
	}
}

func (c *Client) Platform() domain.Platform { return domain.PlatformInstagram }

func (c *Client) UsesPKCE() bool { return false }

func (c *Client) Scopes() []string { return []string{"user_profile", "user_media"} }

func (c *Client) DefaultTokenTTLSeconds() int { return longLivedTTLSeconds }

// BuildAuthURL constructs the authorization URL. Instagram expects
// comma-separated scopes and ignores PKCE parameters, so the
// codeChallenge argument is unused.
func (c *Client) BuildAuthURL(state, codeChallenge string) string {
	params := url.Values{
		"client_id":     {c.clientID},
		"redirect_uri":  {c.redirectURI},
		"scope":         {strings.Join(c.Scopes(), ",")},
		"response_type": {"code"},
		"state":         {state},
	}
	return c.authBaseURL + "/oauth/authorize?" + params.Encode()
}

// ExchangeCode trades the authorization code for a short-lived token,
// then upgrades it to a long-lived one. A failed upgrade keeps the
// short-lived token rather than failing the whole connect.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*driven.OAuthToken, error) {
	params := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {c.redirectURI},
		"code":          {code},
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		c.tokenBaseURL+"/oauth/access_token",
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed: %s", string(body))
	}

	var tokenResp struct {
		AccessToken string          `json:"access_token"`
		UserID      json.RawMessage `json:"user_id"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("token exchange returned no access token: %s", string(body))
	}

	token := &driven.OAuthToken{
		AccessToken:    tokenResp.AccessToken,
		TokenType:      "bearer",
		ExpiresIn:      shortLivedTTLSeconds,
		Scopes:         c.Scopes(),
		PlatformUserID: rawID(tokenResp.UserID),
	}

	// Upgrade to a long-lived token. Best effort.
	if long, err := c.exchangeLongLived(ctx, token.AccessToken); err == nil {
		token.AccessToken = long.AccessToken
		token.ExpiresIn = long.ExpiresIn
	}

	return token, nil
}

// exchangeLongLived performs the ig_exchange_token upgrade.
func (c *Client) exchangeLongLived(ctx context.Context, shortToken string) (*driven.OAuthToken, error) {
	params := url.Values{
		"grant_type":    {"ig_exchange_token"},
		"client_secret": {c.clientSecret},
		"access_token":  {shortToken},
	}

	req, err := http.NewRequestWithContext(ctx, "GET",
		c.graphBaseURL+"/access_token?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("long-lived exchange failed: %s", string(body))
	}

	var exchangeResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &exchangeResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if exchangeResp.AccessToken == "" {
		return nil, fmt.Errorf("long-lived exchange returned no access token")
	}
	if exchangeResp.ExpiresIn == 0 {
		exchangeResp.ExpiresIn = longLivedTTLSeconds
	}

	return &driven.OAuthToken{
		AccessToken: exchangeResp.AccessToken,
		TokenType:   exchangeResp.TokenType,
		ExpiresIn:   exchangeResp.ExpiresIn,
	}, nil
}

// RefreshToken is unsupported: Instagram Basic Display issues no
// refresh token. Callers must reconnect instead.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*driven.OAuthToken, error) {
	return nil, fmt.Errorf("instagram: %w", domain.ErrTokenExpired)
}

// GetProfile fetches the connected account's identity.
func (c *Client) GetProfile(ctx context.Context, accessToken string) (*driven.ProviderProfile, error) {
	params := url.Values{
		"fields":       {"id,username"},
		"access_token": {accessToken},
	}

	req, err := http.NewRequestWithContext(ctx, "GET",
		c.graphBaseURL+"/me?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile fetch failed: %s", string(body))
	}

	var profileResp struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &profileResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &driven.ProviderProfile{
		PlatformUserID: profileResp.ID,
		Username:       profileResp.Username,
		DisplayName:    profileResp.Username,
	}, nil
}

// ListRecentMedia fetches the user's recent media, newest first.
// Videos and carousels map to their thumbnail where one exists.
func (c *Client) ListRecentMedia(ctx context.Context, accessToken string, limit int) ([]*driven.ProviderMedia, error) {
	params := url.Values{
		"fields":       {"id,caption,media_type,media_url,thumbnail_url,permalink,timestamp"},
		"limit":        {strconv.Itoa(limit)},
		"access_token": {accessToken},
	}

	req, err := http.NewRequestWithContext(ctx, "GET",
		c.graphBaseURL+"/me/media?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media fetch failed: %s", string(body))
	}

	var mediaResp struct {
		Data []struct {
			ID           string `json:"id"`
			Caption      string `json:"caption"`
			MediaType    string `json:"media_type"`
			MediaURL     string `json:"media_url"`
			ThumbnailURL string `json:"thumbnail_url"`
			Permalink    string `json:"permalink"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &mediaResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	media := make([]*driven.ProviderMedia, 0, len(mediaResp.Data))
	for _, item := range mediaResp.Data {
		m := &driven.ProviderMedia{
			ID:        item.ID,
			Caption:   item.Caption,
			Permalink: item.Permalink,
		}
		if item.MediaType == "VIDEO" {
			m.Type = domain.MediaTypeVideo
			m.MediaURL = item.ThumbnailURL
			if m.MediaURL == "" {
				m.MediaURL = item.MediaURL
			}
		} else {
			m.Type = domain.MediaTypeImage
			m.MediaURL = item.MediaURL
		}
		media = append(media, m)
	}
	return media, nil
}

// rawID renders the user_id field, which Instagram returns as a JSON
// number.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	return strings.Trim(string(raw), `"`)
}
