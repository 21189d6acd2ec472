package shell

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeBrowser records embedded-browser interactions.
type fakeBrowser struct {
	mu     sync.Mutex
	opened []string
	closed int
}

func (b *fakeBrowser) Open(url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = append(b.opened, url)
	return nil
}

func (b *fakeBrowser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
}

func (b *fakeBrowser) lastOpened() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.opened) == 0 {
		return ""
	}
	return b.opened[len(b.opened)-1]
}

func (b *fakeBrowser) closeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// fakeBackend serves the social endpoints the controller calls.
type fakeBackend struct {
	mu          sync.Mutex
	connections []*domain.ConnectionSummary
	authorize   map[string]any
	syncResult  *domain.SyncResult
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/connections", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		conns := f.connections
		if conns == nil {
			conns = []*domain.ConnectionSummary{}
		}
		_ = json.NewEncoder(w).Encode(conns)
	})
	mux.HandleFunc("POST /tiktok-auth", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(f.authorize)
	})
	mux.HandleFunc("POST /instagram-auth", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(f.authorize)
	})
	mux.HandleFunc("POST /instagram-sync", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(f.syncResult)
	})
	mux.HandleFunc("POST /social-disconnect", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "disconnected"})
	})
	return mux
}

func (f *fakeBackend) setConnections(conns ...*domain.ConnectionSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connections = conns
}

func newShellFixture(t *testing.T) (*SocialConnections, *fakeBackend, *fakeBrowser, *DeepLinkRegistry) {
	t.Helper()
	backend := &fakeBackend{
		authorize: map[string]any{
			"url":           "https://www.tiktok.com/v2/auth/authorize/?state=abc",
			"state":         "abc",
			"code_verifier": "verifier-xyz",
		},
		syncResult: &domain.SyncResult{Success: true, Imported: 2, Skipped: 3, Total: 5},
	}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	browser := &fakeBrowser{}
	links := NewDeepLinkRegistry()
	ctrl := NewSocialConnections(NewAPIClient(srv.URL, "valid-token"), browser, links, discardLogger())
	t.Cleanup(ctrl.Close)
	return ctrl, backend, browser, links
}

func summary(platform domain.Platform) *domain.ConnectionSummary {
	return &domain.ConnectionSummary{
		ID:        "conn-1",
		Platform:  platform,
		Username:  "janedoe",
		CreatedAt: time.Now(),
	}
}

func TestSocialConnections_Refresh(t *testing.T) {
	ctrl, backend, _, _ := newShellFixture(t)
	backend.setConnections(summary(domain.PlatformInstagram))

	require.NoError(t, ctrl.Refresh(context.Background()))

	assert.True(t, ctrl.IsConnected(domain.PlatformInstagram))
	assert.False(t, ctrl.IsConnected(domain.PlatformTikTok))
	require.NotNil(t, ctrl.GetConnection(domain.PlatformInstagram))
	assert.Equal(t, "janedoe", ctrl.GetConnection(domain.PlatformInstagram).Username)
}

func TestSocialConnections_ConnectOpensBrowser(t *testing.T) {
	ctrl, _, browser, _ := newShellFixture(t)

	require.NoError(t, ctrl.Connect(context.Background(), domain.PlatformTikTok))

	assert.Contains(t, browser.lastOpened(), "tiktok.com")
	// The PKCE verifier is held for the in-flight flow.
	ctrl.mu.RLock()
	assert.Equal(t, "verifier-xyz", ctrl.verifiers[domain.PlatformTikTok])
	ctrl.mu.RUnlock()
}

func TestSocialConnections_DeepLinkSuccess(t *testing.T) {
	ctrl, backend, browser, links := newShellFixture(t)
	require.NoError(t, ctrl.Connect(context.Background(), domain.PlatformTikTok))

	// The backend now reports the connection that the callback created.
	backend.setConnections(summary(domain.PlatformTikTok))

	links.Dispatch("engage://social-callback?status=success&platform=tiktok&message=TikTok+account+connected")

	assert.Equal(t, 1, browser.closeCount())
	assert.True(t, ctrl.IsConnected(domain.PlatformTikTok))
	assert.Empty(t, ctrl.LastError())
	ctrl.mu.RLock()
	assert.Empty(t, ctrl.verifiers[domain.PlatformTikTok])
	ctrl.mu.RUnlock()
}

func TestSocialConnections_DeepLinkFailure(t *testing.T) {
	ctrl, _, browser, links := newShellFixture(t)

	links.Dispatch("engage://social-callback?status=error&platform=instagram&message=Authorization+was+cancelled")

	assert.Equal(t, 1, browser.closeCount())
	assert.False(t, ctrl.IsConnected(domain.PlatformInstagram))
	assert.Equal(t, "Authorization was cancelled", ctrl.LastError())
}

func TestSocialConnections_UnrelatedDeepLinkIgnored(t *testing.T) {
	ctrl, _, browser, links := newShellFixture(t)

	links.Dispatch("engage://post/12345")

	assert.Zero(t, browser.closeCount())
	assert.Empty(t, ctrl.LastError())
}

func TestSocialConnections_Sync(t *testing.T) {
	ctrl, backend, _, _ := newShellFixture(t)
	backend.setConnections(summary(domain.PlatformInstagram))

	result, err := ctrl.Sync(context.Background(), domain.PlatformInstagram)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 3, result.Skipped)
	// The in-flight marker is cleared when the sync returns.
	assert.False(t, ctrl.Syncing(domain.PlatformInstagram))
}

func TestSocialConnections_Disconnect(t *testing.T) {
	ctrl, backend, _, _ := newShellFixture(t)
	backend.setConnections(summary(domain.PlatformInstagram))
	require.NoError(t, ctrl.Refresh(context.Background()))
	require.True(t, ctrl.IsConnected(domain.PlatformInstagram))

	require.NoError(t, ctrl.Disconnect(context.Background(), domain.PlatformInstagram))
	assert.False(t, ctrl.IsConnected(domain.PlatformInstagram))
}

func TestSocialConnections_CloseUnsubscribes(t *testing.T) {
	ctrl, _, browser, links := newShellFixture(t)

	ctrl.Close()
	links.Dispatch("engage://social-callback?status=error&platform=instagram&message=late")

	assert.Zero(t, browser.closeCount())
	assert.Empty(t, ctrl.LastError())
}
