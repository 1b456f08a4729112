// Package sqlite implements the identity repository on an embedded SQLite
// database.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite — no CGo, no C compiler, trivial
// cross-compilation. ":memory:" gives tests a throwaway database.
//
// The uniqueness invariants live here, in the schema, not in application
// checks: email has a UNIQUE index (one identity per normalized email) and
// each provider id column has one (at most one identity may hold a given
// provider id). Concurrent signups racing past the engine's fast-path
// lookup are rejected by the email index at write time.
package sqlite

import (
	"database/sql"
	"fmt"

	// Blank import registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and implements repository.IdentityRepository.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads during a write — required for a web
	// server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	// email is stored lowercased by the repository methods; the NOCASE
	// collation makes the UNIQUE index and lookups case-insensitive even
	// if a caller slips through with mixed case.
	//
	// password_hash / google_id / microsoft_id / profile_picture are NULL
	// when absent. SQLite UNIQUE indexes ignore NULLs, so any number of
	// local-only accounts coexist while a given provider id stays unique.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS identities (
			id              TEXT PRIMARY KEY,
			email           TEXT NOT NULL UNIQUE COLLATE NOCASE,
			name            TEXT NOT NULL,
			password_hash   TEXT,
			google_id       TEXT UNIQUE,
			microsoft_id    TEXT UNIQUE,
			profile_picture TEXT,
			is_verified     INTEGER NOT NULL DEFAULT 0,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating identities table: %w", err)
	}

	return nil
}
