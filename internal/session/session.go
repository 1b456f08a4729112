// Package session is the Session Gate: it turns a resolved identity into a
// persisted server-side session, enforces the cookie policy, and gates
// verification-required routes.
//
// Sessions live in a shared external TTL store (Redis); no in-process cache.
// The cookie carries only the opaque session id.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// Session is one authenticated browser session. It stores only the pointer
// to the identity, never auth state.
type Session struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identityId"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Store is the TTL-backed session persistence contract. Get returns
// (nil, nil) for a missing or expired session — absence is not an error.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// generateID returns a cryptographically random session id
// (256 bits of entropy, URL-safe).
func generateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: generating id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
