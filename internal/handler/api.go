package handler

import (
	"net/http"

	"github.com/aihub-vvit/aihub-server/internal/session"
)

// APIHandler serves the session-introspection endpoints the SPA polls on
// load: who is logged in, and whether anyone is at all.
type APIHandler struct{}

// NewAPIHandler creates an APIHandler.
func NewAPIHandler() *APIHandler {
	return &APIHandler{}
}

// HandleCurrentUser returns the authenticated user's profile.
//
// HTTP: GET /api/user
// Auth: session cookie (LoadIdentity middleware)
func (h *APIHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := session.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Not authenticated"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": identity.Public()})
}

// HandleAuthCheck reports whether the request carries a live session.
//
// HTTP: GET /api/auth/check
//
// Always 200 — the SPA uses the boolean, not the status code, so an
// anonymous visitor doesn't trip error interceptors.
func (h *APIHandler) HandleAuthCheck(w http.ResponseWriter, r *http.Request) {
	_, ok := session.IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": ok})
}
