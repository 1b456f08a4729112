// Package model defines the data structures used throughout the application.
package model

import "time"

// Provider identifies an external OAuth identity source.
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderMicrosoft Provider = "microsoft"
)

// DisplayName returns the user-facing provider name ("Google", "Microsoft").
// Used in error messages that tell the user which sign-in button to press.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderGoogle:
		return "Google"
	case ProviderMicrosoft:
		return "Microsoft"
	}
	return ""
}

// Identity represents one user account. Email is the unique merge key:
// a local signup and an OAuth login sharing an email always resolve to
// the same record.
//
// WHY PLAIN STRINGS FOR OPTIONAL FIELDS?
// PasswordHash, GoogleID, MicrosoftID and ProfilePicture are optional, with
// the empty string meaning "absent". The zero value is simpler to work with
// than nullable pointers; the sqlite layer maps "" to NULL so the UNIQUE
// indexes on provider ids ignore absent values.
//
// Invariants maintained by the resolution engine and the store:
//   - email is globally unique, stored lowercased
//   - a record with any provider id set has IsVerified = true
//   - PasswordHash is set only when a password was supplied (signup or reset)
type Identity struct {
	ID             string    `json:"id"             db:"id"`
	Email          string    `json:"email"          db:"email"`
	Name           string    `json:"name"           db:"name"`
	PasswordHash   string    `json:"-"              db:"password_hash"`
	GoogleID       string    `json:"-"              db:"google_id"`
	MicrosoftID    string    `json:"-"              db:"microsoft_id"`
	ProfilePicture string    `json:"profilePicture" db:"profile_picture"`
	IsVerified     bool      `json:"isVerified"     db:"is_verified"`
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt"      db:"updated_at"`
}

// HasPassword reports whether the account can log in with a password.
func (i *Identity) HasPassword() bool {
	return i.PasswordHash != ""
}

// OAuthProvider returns the first linked provider, or "" if the account
// is local-only. Google wins the (unusual) case where both are linked,
// matching the order the checks run in.
func (i *Identity) OAuthProvider() Provider {
	if i.GoogleID != "" {
		return ProviderGoogle
	}
	if i.MicrosoftID != "" {
		return ProviderMicrosoft
	}
	return ""
}

// SetProviderID attaches an external provider id to the record.
func (i *Identity) SetProviderID(p Provider, subject string) {
	switch p {
	case ProviderGoogle:
		i.GoogleID = subject
	case ProviderMicrosoft:
		i.MicrosoftID = subject
	}
}

// PublicUser is the subset of Identity exposed to the client in JSON
// responses (login response, GET /api/user).
type PublicUser struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
	IsVerified     bool   `json:"isVerified"`
}

// Public returns the client-safe view of the identity.
func (i *Identity) Public() PublicUser {
	return PublicUser{
		ID:             i.ID,
		Name:           i.Name,
		Email:          i.Email,
		ProfilePicture: i.ProfilePicture,
		IsVerified:     i.IsVerified,
	}
}
