// Package provider implements the external OAuth identity sources (Google,
// Microsoft) behind a single interface.
//
// Providers return identity facts only. Deciding whether those facts mean
// "log in", "link" or "create an account" is the resolution engine's job
// (internal/service); providers must not touch the store or sessions.
package provider

import (
	"context"
	"fmt"

	"github.com/aihub-vvit/aihub-server/internal/model"
)

// Profile is the normalized result of a completed OAuth exchange.
type Profile struct {
	Provider model.Provider // which source authenticated the user
	Subject  string         // provider's stable user id
	Email    string
	Name     string
	Picture  string // profile picture URL, may be empty
}

// OAuthProvider is the contract both identity sources implement.
type OAuthProvider interface {
	// Name returns the provider identifier used in routes ("google").
	Name() model.Provider

	// AuthURL returns the provider consent URL for the given CSRF state.
	// Implementations always force account selection and consent — no
	// silent re-auth.
	AuthURL(state string) string

	// Exchange trades the callback code for a normalized profile.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Registry holds the configured providers, looked up by the {provider}
// path parameter of /auth/{provider} routes.
type Registry struct {
	providers map[model.Provider]OAuthProvider
}

// NewRegistry registers the given providers by name.
func NewRegistry(list ...OAuthProvider) *Registry {
	m := make(map[model.Provider]OAuthProvider, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider by name or an error if it is not configured.
func (r *Registry) Get(name string) (OAuthProvider, error) {
	p, ok := r.providers[model.Provider(name)]
	if !ok {
		return nil, fmt.Errorf("provider: unknown oauth provider %q", name)
	}
	return p, nil
}
