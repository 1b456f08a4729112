package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aihub-vvit/aihub-server/internal/model"
	"github.com/aihub-vvit/aihub-server/internal/repository"
)

// contextKey is unexported so only this package can read or write the
// identity slot in a request context.
type contextKey string

const identityKey contextKey = "identity"

// LoadIdentity resolves the session cookie and, when valid, attaches the
// full identity record to the request context. It never blocks a request:
// anonymous and expired sessions pass through without an identity.
func LoadIdentity(gate *Gate, identities repository.IdentityRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := gate.Resolve(r.Context(), r)
			if err != nil {
				// Store trouble — treat as anonymous but log it.
				logger.Error("session resolve failed", slog.String("error", err.Error()))
			}
			if s != nil {
				identity, err := identities.FindByID(r.Context(), s.IdentityID)
				if err == nil {
					ctx := context.WithValue(r.Context(), identityKey, identity)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext returns the authenticated identity, or (nil, false)
// for anonymous requests.
func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*model.Identity)
	return identity, ok && identity != nil
}

// RequireVerified denies the request unless the session's identity is
// verified, redirecting anonymous and unverified visitors to the landing
// URL. Apply after LoadIdentity.
func RequireVerified(landingURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || !identity.IsVerified {
				http.Redirect(w, r, landingURL, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
