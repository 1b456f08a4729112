// Package auth provides password hashing for local accounts.
//
// bcrypt generates and embeds a random salt per hash, so the stored string
// is self-contained — no separate salt column. The cost controls how slow
// (and therefore how brute-force resistant) hashing is.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost mirrors the work factor the accounts were originally hashed
// with, so existing hashes keep verifying and new ones stay comparable.
const defaultCost = 10

// PasswordService hashes and verifies passwords. The cost is injectable so
// tests can use bcrypt's minimum and skip the ~100ms per operation.
type PasswordService struct {
	cost int
}

// NewPasswordService returns a PasswordService with the production cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest returns a PasswordService with a custom (lower)
// cost. Test helper only — never use a reduced cost in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes a plaintext password. Rejects inputs over 72 bytes — bcrypt
// would silently truncate them otherwise.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.New("auth: password must not be empty")
	}
	if len(plaintext) > 72 {
		return "", errors.New("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. Comparison is
// constant-time inside bcrypt.
func (p *PasswordService) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
