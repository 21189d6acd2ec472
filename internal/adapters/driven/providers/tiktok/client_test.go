package tiktok

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

func testClient(srv *httptest.Server) *Client {
	c := NewClient("app-key", "app-secret", "https://api.example.com/tiktok-callback")
	c.authBaseURL = srv.URL
	c.apiBaseURL = srv.URL
	return c
}

func TestBuildAuthURL(t *testing.T) {
	c := NewClient("app-key", "app-secret", "https://api.example.com/tiktok-callback")

	raw := c.BuildAuthURL("state-123", "challenge-abc")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	if !strings.HasPrefix(u.Path, "/v2/auth/authorize/") {
		t.Errorf("path = %q", u.Path)
	}

	q := u.Query()
	if q.Get("client_key") != "app-key" {
		t.Errorf("client_key = %q", q.Get("client_key"))
	}
	if q.Get("client_id") != "" {
		t.Error("tiktok uses client_key, not client_id")
	}
	if q.Get("code_challenge") != "challenge-abc" {
		t.Errorf("code_challenge = %q", q.Get("code_challenge"))
	}
	if q.Get("code_challenge_method") != "S256" {
		t.Errorf("code_challenge_method = %q", q.Get("code_challenge_method"))
	}
	if q.Get("scope") != "user.info.basic,video.list" {
		t.Errorf("scope = %q", q.Get("scope"))
	}
}

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/oauth/token/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.Form.Get("client_key") != "app-key" {
			t.Errorf("client_key = %q", r.Form.Get("client_key"))
		}
		if r.Form.Get("code_verifier") != "verifier-xyz" {
			t.Errorf("code_verifier = %q", r.Form.Get("code_verifier"))
		}
		w.Write([]byte(`{
			"access_token":"act.token",
			"refresh_token":"rft.token",
			"token_type":"Bearer",
			"expires_in":86400,
			"open_id":"open-123",
			"scope":"user.info.basic,video.list"
		}`))
	}))
	defer srv.Close()

	token, err := testClient(srv).ExchangeCode(context.Background(), "the-code", "verifier-xyz")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if token.AccessToken != "act.token" || token.RefreshToken != "rft.token" {
		t.Errorf("tokens mapped wrong: %+v", token)
	}
	if token.PlatformUserID != "open-123" {
		t.Errorf("open_id = %q", token.PlatformUserID)
	}
	if len(token.Scopes) != 2 {
		t.Errorf("scopes = %v", token.Scopes)
	}
}

func TestExchangeCode_ErrorIn200Body(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// TikTok reports failures with HTTP 200.
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Authorization code expired"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv).ExchangeCode(context.Background(), "stale-code", "verifier")
	if err == nil {
		t.Fatal("expected error from 200-body error envelope")
	}
	if !strings.Contains(err.Error(), "invalid_grant") {
		t.Errorf("error should carry provider code: %v", err)
	}
}

func TestRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %q", r.Form.Get("grant_type"))
		}
		if r.Form.Get("refresh_token") != "rft.old" {
			t.Errorf("refresh_token = %q", r.Form.Get("refresh_token"))
		}
		w.Write([]byte(`{"access_token":"act.new","refresh_token":"rft.new","open_id":"open-123"}`))
	}))
	defer srv.Close()

	token, err := testClient(srv).RefreshToken(context.Background(), "rft.old")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if token.AccessToken != "act.new" || token.RefreshToken != "rft.new" {
		t.Errorf("tokens mapped wrong: %+v", token)
	}
	// Omitted expires_in falls back to the platform default.
	if token.ExpiresIn != 86400 {
		t.Errorf("expires_in = %d, want default", token.ExpiresIn)
	}
}

func TestGetProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/user/info/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer act.token" {
			t.Errorf("authorization = %q", got)
		}
		w.Write([]byte(`{
			"data":{"user":{"open_id":"open-123","username":"janedoe","display_name":"Jane","avatar_url":"https://cdn/avatar.jpg"}},
			"error":{"code":"ok","message":""}
		}`))
	}))
	defer srv.Close()

	profile, err := testClient(srv).GetProfile(context.Background(), "act.token")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.PlatformUserID != "open-123" || profile.DisplayName != "Jane" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestGetProfile_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{},"error":{"code":"access_token_invalid","message":"The access token is invalid"}}`))
	}))
	defer srv.Close()

	if _, err := testClient(srv).GetProfile(context.Background(), "bad-token"); err == nil {
		t.Error("expected error from api error envelope")
	}
}

func TestListRecentMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/video/list/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]int
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["max_count"] != 20 {
			t.Errorf("max_count = %d", body["max_count"])
		}
		w.Write([]byte(`{
			"data":{"videos":[
				{"id":"v1","video_description":"my clip","cover_image_url":"https://cdn/c1.jpg","share_url":"https://tiktok.com/v1"},
				{"id":"v2","title":"untitled fallback","cover_image_url":"https://cdn/c2.jpg","share_url":"https://tiktok.com/v2"}
			]},
			"error":{"code":"ok"}
		}`))
	}))
	defer srv.Close()

	media, err := testClient(srv).ListRecentMedia(context.Background(), "act.token", 20)
	if err != nil {
		t.Fatalf("list media: %v", err)
	}
	if len(media) != 2 {
		t.Fatalf("expected 2 items, got %d", len(media))
	}
	if media[0].Type != domain.MediaTypeVideo || media[0].MediaURL != "https://cdn/c1.jpg" {
		t.Errorf("video mapped wrong: %+v", media[0])
	}
	if media[0].Caption != "my clip" {
		t.Errorf("caption = %q", media[0].Caption)
	}
	// Title fills in when the description is empty.
	if media[1].Caption != "untitled fallback" {
		t.Errorf("caption fallback = %q", media[1].Caption)
	}
}
