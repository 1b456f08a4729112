package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/aihub-vvit/aihub-server/internal/apperror"
	"github.com/aihub-vvit/aihub-server/internal/model"
	"github.com/aihub-vvit/aihub-server/internal/repository"
)

// compile-time check that *DB implements repository.IdentityRepository
var _ repository.IdentityRepository = (*DB)(nil)

const identityColumns = `id, email, name, password_hash, google_id, microsoft_id,
	profile_picture, is_verified, created_at, updated_at`

// Create inserts a new identity, assigning its id and timestamps.
//
// A UNIQUE violation on email is translated to apperror.ErrDuplicateEmail.
// This is the authoritative duplicate check — two concurrent signups both
// passing the engine's FindByEmail fast path still collide here.
func (db *DB) Create(ctx context.Context, identity *model.Identity) error {
	now := time.Now()
	identity.ID = xid.New().String()
	identity.Email = strings.ToLower(identity.Email)
	identity.CreatedAt = now
	identity.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO identities (`+identityColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		identity.ID,
		identity.Email,
		identity.Name,
		nullable(identity.PasswordHash),
		nullable(identity.GoogleID),
		nullable(identity.MicrosoftID),
		nullable(identity.ProfilePicture),
		identity.IsVerified,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "identities.email") {
			return apperror.DuplicateEmail()
		}
		return fmt.Errorf("sqlite: inserting identity (email=%s): %w", identity.Email, err)
	}

	return nil
}

// Save persists every mutable field of an existing identity. Idempotent —
// writing the same record twice is harmless.
func (db *DB) Save(ctx context.Context, identity *model.Identity) error {
	identity.Email = strings.ToLower(identity.Email)
	identity.UpdatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE identities
		 SET email = ?, name = ?, password_hash = ?, google_id = ?,
		     microsoft_id = ?, profile_picture = ?, is_verified = ?, updated_at = ?
		 WHERE id = ?`,
		identity.Email,
		identity.Name,
		nullable(identity.PasswordHash),
		nullable(identity.GoogleID),
		nullable(identity.MicrosoftID),
		nullable(identity.ProfilePicture),
		identity.IsVerified,
		identity.UpdatedAt,
		identity.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating identity %s: %w", identity.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("identity", identity.ID)
	}
	return nil
}

// FindByID retrieves an identity by its internal id.
func (db *DB) FindByID(ctx context.Context, id string) (*model.Identity, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
	return scanIdentity(row, id)
}

// FindByEmail retrieves an identity by email, case-insensitively.
func (db *DB) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	email = strings.ToLower(email)
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE email = ?`, email)
	return scanIdentity(row, email)
}

// FindByProviderID retrieves the identity holding the given provider id.
func (db *DB) FindByProviderID(ctx context.Context, provider model.Provider, subject string) (*model.Identity, error) {
	column := "google_id"
	if provider == model.ProviderMicrosoft {
		column = "microsoft_id"
	}

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE `+column+` = ?`, subject)
	return scanIdentity(row, string(provider)+":"+subject)
}

func scanIdentity(row *sql.Row, key string) (*model.Identity, error) {
	var (
		i             model.Identity
		passwordHash  sql.NullString
		googleID      sql.NullString
		microsoftID   sql.NullString
		profilePic    sql.NullString
	)

	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Name,
		&passwordHash,
		&googleID,
		&microsoftID,
		&profilePic,
		&i.IsVerified,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("identity", key)
		}
		return nil, fmt.Errorf("sqlite: scanning identity %s: %w", key, err)
	}

	i.PasswordHash = passwordHash.String
	i.GoogleID = googleID.String
	i.MicrosoftID = microsoftID.String
	i.ProfilePicture = profilePic.String
	return &i, nil
}

// nullable maps ""-absent string fields to NULL so the partial UNIQUE
// indexes on provider ids ignore records without one.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// the given index. modernc.org/sqlite surfaces constraint errors as text
// ("UNIQUE constraint failed: identities.email"), so string matching is the
// portable check.
func isUniqueViolation(err error, constraint string) bool {
	return err != nil &&
		strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), constraint)
}
