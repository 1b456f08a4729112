// Package token issues and verifies the signed, expiring tokens used in
// email verification and password reset links.
//
// The service is stateless — a token is a pure function of the secret key.
// Validity is determined entirely by signature and expiry at verification
// time, so a token remains usable any number of times until it expires.
// Verification is idempotent (re-verifying is a no-op) and reset replay is
// bounded by the 1 hour TTL, so no consumed-marker is persisted.
//
// Tokens carry a purpose claim, and Verify requires the expected purpose:
// a reset token can never pass as a verification token even though both are
// signed with the same secret.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aihub-vvit/aihub-server/internal/apperror"
)

const issuer = "aihub-server"

// Purpose says what a token is for. The purpose decides the TTL and is
// embedded in the token so the two kinds cannot be swapped.
type Purpose string

const (
	PurposeVerify Purpose = "verify"
	PurposeReset  Purpose = "reset"
)

// TTL returns how long a token of this purpose stays valid: 24h for email
// verification links, 1h for password reset links.
func (p Purpose) TTL() time.Duration {
	switch p {
	case PurposeReset:
		return time.Hour
	default:
		return 24 * time.Hour
	}
}

// Service signs and verifies tokens with an HMAC secret.
type Service struct {
	secret []byte

	// now is injectable so tests can pin the clock on both sides of an
	// expiry boundary.
	now func() time.Time
}

// NewService creates a Service with the given secret.
// The secret should be at least 32 bytes of random data in production.
func NewService(secret string) (*Service, error) {
	if len(secret) < 16 {
		return nil, errors.New("token: secret must be at least 16 characters")
	}
	return &Service{secret: []byte(secret), now: time.Now}, nil
}

// claims is the token payload: the identity id in the standard "sub" claim
// plus our purpose claim.
type claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Issue produces a signed token encoding the identity id, expiring after
// the purpose's TTL.
func (s *Service) Issue(identityID string, purpose Purpose) (string, error) {
	if identityID == "" {
		return "", errors.New("token: identity id must not be empty")
	}

	now := s.now()
	c := claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(purpose.TTL())),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", errors.Join(errors.New("token: signing"), err)
	}
	return signed, nil
}

// Verify checks signature, expiry, issuer and purpose, and returns the
// identity id the token encodes.
//
// Every failure maps to the same apperror.TokenInvalid — callers (and the
// HTTP responses built from them) must not distinguish a bad signature from
// an expired token.
func (s *Service) Verify(tokenStr string, want Purpose) (string, error) {
	parsed, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("token: unexpected signing method")
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", apperror.TokenInvalid()
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Subject == "" || c.Purpose != want {
		return "", apperror.TokenInvalid()
	}

	return c.Subject, nil
}
