package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	// CookieName is the session cookie. The value is the opaque session id.
	CookieName = "aihub.sid"

	// DefaultTTL applies to ordinary logins; RememberTTL when the user
	// checked "remember me".
	DefaultTTL  = 24 * time.Hour
	RememberTTL = 30 * 24 * time.Hour
)

// Gate creates and destroys sessions and owns the cookie policy:
// HttpOnly always; Secure + SameSite=None in production (the client is a
// cross-site SPA), Lax + non-secure in development.
type Gate struct {
	store      Store
	production bool
	logger     *slog.Logger
}

// NewGate creates a Gate. production switches the cookie policy.
func NewGate(store Store, production bool, logger *slog.Logger) *Gate {
	return &Gate{store: store, production: production, logger: logger}
}

// Establish creates a server-side session for the identity and sets the
// session cookie. TTL is 30 days when remember is set, 1 day otherwise.
func (g *Gate) Establish(ctx context.Context, w http.ResponseWriter, identityID string, remember bool) error {
	id, err := generateID()
	if err != nil {
		return err
	}

	ttl := DefaultTTL
	if remember {
		ttl = RememberTTL
	}

	s := Session{
		ID:         id,
		IdentityID: identityID,
		ExpiresAt:  time.Now().Add(ttl),
	}
	if err := g.store.Create(ctx, s); err != nil {
		return fmt.Errorf("session: creating session: %w", err)
	}

	http.SetCookie(w, g.cookie(id, int(ttl.Seconds())))

	g.logger.Debug("session established",
		slog.String("identityID", identityID),
		slog.Bool("remember", remember),
	)
	return nil
}

// Terminate invalidates the server-side session (if any) and clears the
// cookie. Safe to call without an active session.
func (g *Gate) Terminate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		if err := g.store.Delete(ctx, cookie.Value); err != nil {
			return fmt.Errorf("session: deleting session: %w", err)
		}
	}

	http.SetCookie(w, g.cookie("", -1))
	return nil
}

// Resolve reads the session cookie and loads the session from the store.
// Returns (nil, nil) for anonymous requests — no cookie, unknown id, or
// expired session.
func (g *Gate) Resolve(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	return g.store.Get(ctx, cookie.Value)
}

func (g *Gate) cookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   g.production,
		SameSite: http.SameSiteLaxMode,
	}
	if g.production {
		// Cross-site SPA: the cookie must ride on requests from the
		// client origin, which requires SameSite=None + Secure.
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}
