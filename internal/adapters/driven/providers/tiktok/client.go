// Package tiktok implements the TikTok v2 OAuth flow and content API.
package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.ProviderClient = (*Client)(nil)

// defaultTTLSeconds is the documented 24-hour access token lifetime,
// used when the token endpoint omits expires_in.
const defaultTTLSeconds = 86400

// Client talks to the TikTok OAuth and open API endpoints. TikTok
// requires PKCE on authorization and reports errors inside 200
// responses, so every decode checks the embedded error object.
type Client struct {
	clientKey    string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client

	// Overridable in tests.
	authBaseURL string
	apiBaseURL  string
}

// NewClient creates a TikTok client from OAuth app credentials.
func NewClient(clientKey, clientSecret, redirectURI string) *Client {
	return &Client{
		clientKey:    clientKey,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		authBaseURL:  "https://www.tiktok.com",
		apiBaseURL:   "https://open.tiktokapis.com",
	}
}

func (c *Client) Platform() domain.Platform { return domain.PlatformTikTok }

func (c *Client) UsesPKCE() bool { return true }

func (c *Client) Scopes() []string { return []string{"user.info.basic", "video.list"} }

func (c *Client) DefaultTokenTTLSeconds() int { return defaultTTLSeconds }

// BuildAuthURL constructs the authorization URL with the S256 code
// challenge. TikTok names the app credential client_key, not client_id.
func (c *Client) BuildAuthURL(state, codeChallenge string) string {
	params := url.Values{
		"client_key":            {c.clientKey},
		"scope":                 {strings.Join(c.Scopes(), ",")},
		"response_type":         {"code"},
		"redirect_uri":          {c.redirectURI},
		"state":                 {state},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"S256"},
	}
	return c.authBaseURL + "/v2/auth/authorize/?" + params.Encode()
}

// tokenResponse is the shared token endpoint shape. TikTok returns
// HTTP 200 with an error object on failure.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	OpenID           string `json:"open_id"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExchangeCode trades the authorization code for tokens. The PKCE
// verifier generated at authorize time must accompany the code.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*driven.OAuthToken, error) {
	params := url.Values{
		"client_key":    {c.clientKey},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {c.redirectURI},
		"code_verifier": {codeVerifier},
	}
	return c.postToken(ctx, params)
}

// RefreshToken exchanges a refresh token for fresh tokens.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*driven.OAuthToken, error) {
	params := url.Values{
		"client_key":    {c.clientKey},
		"client_secret": {c.clientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return c.postToken(ctx, params)
}

func (c *Client) postToken(ctx context.Context, params url.Values) (*driven.OAuthToken, error) {
	req, err := http.NewRequestWithContext(ctx, "POST",
		c.apiBaseURL+"/v2/oauth/token/",
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
		return nil, fmt.Errorf("token request failed: %s", string(body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if tokenResp.Error != "" {
		return nil, fmt.Errorf("oauth error: %s - %s", tokenResp.Error, tokenResp.ErrorDescription)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("token request returned no access token: %s", string(body))
	}
	if tokenResp.ExpiresIn == 0 {
		tokenResp.ExpiresIn = defaultTTLSeconds
	}

	var scopes []string
	if tokenResp.Scope != "" {
		scopes = strings.Split(tokenResp.Scope, ",")
	}

	return &driven.OAuthToken{
		AccessToken:    tokenResp.AccessToken,
		RefreshToken:   tokenResp.RefreshToken,
		TokenType:      tokenResp.TokenType,
		ExpiresIn:      tokenResp.ExpiresIn,
		Scopes:         scopes,
		PlatformUserID: tokenResp.OpenID,
	}, nil
}

// apiError is the error envelope inside TikTok API responses.
// Code "ok" means success.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e apiError) failed() bool {
	return e.Code != "" && e.Code != "ok"
}

// GetProfile fetches the connected account's identity.
func (c *Client) GetProfile(ctx context.Context, accessToken string) (*driven.ProviderProfile, error) {
	fields := "open_id,union_id,avatar_url,display_name,username"
	req, err := http.NewRequestWithContext(ctx, "GET",
		c.apiBaseURL+"/v2/user/info/?fields="+url.QueryEscape(fields), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

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
		Data struct {
			User struct {
				OpenID      string `json:"open_id"`
				Username    string `json:"username"`
				DisplayName string `json:"display_name"`
				AvatarURL   string `json:"avatar_url"`
			} `json:"user"`
		} `json:"data"`
		Error apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &profileResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if profileResp.Error.failed() {
		return nil, fmt.Errorf("profile fetch failed: %s - %s", profileResp.Error.Code, profileResp.Error.Message)
	}

	user := profileResp.Data.User
	return &driven.ProviderProfile{
		PlatformUserID: user.OpenID,
		Username:       user.Username,
		DisplayName:    user.DisplayName,
		AvatarURL:      user.AvatarURL,
	}, nil
}

// ListRecentMedia fetches the user's recent videos. Every item maps to
// a video with its cover image as the displayable asset.
func (c *Client) ListRecentMedia(ctx context.Context, accessToken string, limit int) ([]*driven.ProviderMedia, error) {
	fields := "id,title,video_description,cover_image_url,share_url"
	payload, err := json.Marshal(map[string]int{"max_count": limit})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		c.apiBaseURL+"/v2/video/list/?fields="+url.QueryEscape(fields),
		bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

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
		return nil, fmt.Errorf("video list failed: %s", string(body))
	}

	var listResp struct {
		Data struct {
			Videos []struct {
				ID               string `json:"id"`
				Title            string `json:"title"`
				VideoDescription string `json:"video_description"`
				CoverImageURL    string `json:"cover_image_url"`
				ShareURL         string `json:"share_url"`
			} `json:"videos"`
		} `json:"data"`
		Error apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if listResp.Error.failed() {
		return nil, fmt.Errorf("video list failed: %s - %s", listResp.Error.Code, listResp.Error.Message)
	}

	media := make([]*driven.ProviderMedia, 0, len(listResp.Data.Videos))
	for _, v := range listResp.Data.Videos {
		caption := v.VideoDescription
		if caption == "" {
			caption = v.Title
		}
		media = append(media, &driven.ProviderMedia{
			ID:        v.ID,
			Caption:   caption,
			MediaURL:  v.CoverImageURL,
			Permalink: v.ShareURL,
			Type:      domain.MediaTypeVideo,
		})
	}
	return media, nil
}
