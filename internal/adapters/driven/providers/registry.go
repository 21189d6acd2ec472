// Package providers wires per-platform OAuth and content API clients
// behind a common registry. A platform without configured app
// credentials is simply absent from the registry.
package providers

import (
	"github.com/engage-labs/engage-social/internal/adapters/driven/providers/instagram"
	"github.com/engage-labs/engage-social/internal/adapters/driven/providers/tiktok"
	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ProviderRegistry = (*Registry)(nil)

// Settings holds the OAuth app credentials for one platform.
type Settings struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Configured reports whether the platform app is usable.
func (s Settings) Configured() bool {
	return s.ClientID != "" && s.ClientSecret != "" && s.RedirectURI != ""
}

// Registry maps platforms to their configured clients.
type Registry struct {
	clients map[domain.Platform]driven.ProviderClient
}

// NewRegistry builds a registry from per-platform settings. Platforms
// with incomplete credentials are left unregistered rather than
// half-configured.
func NewRegistry(ig, tt Settings) *Registry {
	clients := make(map[domain.Platform]driven.ProviderClient)
	if ig.Configured() {
		clients[domain.PlatformInstagram] = instagram.NewClient(ig.ClientID, ig.ClientSecret, ig.RedirectURI)
	}
	if tt.Configured() {
		clients[domain.PlatformTikTok] = tiktok.NewClient(tt.ClientID, tt.ClientSecret, tt.RedirectURI)
	}
	return &Registry{clients: clients}
}

// Get returns the client for a platform.
func (r *Registry) Get(platform domain.Platform) (driven.ProviderClient, error) {
	client, ok := r.clients[platform]
	if !ok {
		return nil, domain.ErrProviderNotConfigured
	}
	return client, nil
}

// Platforms lists the configured platforms.
func (r *Registry) Platforms() []domain.Platform {
	var out []domain.Platform
	for _, p := range domain.Platforms() {
		if _, ok := r.clients[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
