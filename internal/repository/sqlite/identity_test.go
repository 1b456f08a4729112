package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/aihub-vvit/aihub-server/internal/apperror"
	"github.com/aihub-vvit/aihub-server/internal/model"
)

// newTestDB returns a DB backed by an in-memory SQLite database that
// disappears when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:): %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestIdentity creates a local identity and fails the test on error.
func createTestIdentity(t *testing.T, db *DB, email string) *model.Identity {
	t.Helper()
	identity := &model.Identity{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$2a$04$fakehashfakehashfakehash",
	}
	if err := db.Create(context.Background(), identity); err != nil {
		t.Fatalf("failed to create test identity: %v", err)
	}
	return identity
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate(t *testing.T) {
	db := newTestDB(t)

	identity := &model.Identity{
		Email: "Student@Example.Com",
		Name:  "Student",
	}
	if err := db.Create(context.Background(), identity); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if identity.ID == "" {
		t.Error("Create() did not set identity.ID")
	}
	if identity.Email != "student@example.com" {
		t.Errorf("Create() email = %q, want lowercased", identity.Email)
	}
	if identity.CreatedAt.IsZero() || identity.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestIdentity(t, db, "a@x.com")

	duplicate := &model.Identity{Email: "a@x.com", Name: "Other"}
	err := db.Create(context.Background(), duplicate)
	if err == nil {
		t.Fatal("Create() should fail for a duplicate email")
	}
	if !errors.Is(err, apperror.ErrDuplicateEmail) {
		t.Errorf("Create() error = %v, want ErrDuplicateEmail", err)
	}
}

func TestCreate_DuplicateEmailDifferentCase(t *testing.T) {
	db := newTestDB(t)
	createTestIdentity(t, db, "a@x.com")

	// NOCASE collation: case variants are the same email.
	duplicate := &model.Identity{Email: "A@X.COM", Name: "Other"}
	err := db.Create(context.Background(), duplicate)
	if !errors.Is(err, apperror.ErrDuplicateEmail) {
		t.Errorf("Create() error = %v, want ErrDuplicateEmail for a case variant", err)
	}
}

func TestCreate_ManyLocalAccountsWithoutProviderIDs(t *testing.T) {
	db := newTestDB(t)

	// NULL provider ids must not collide on the UNIQUE indexes.
	createTestIdentity(t, db, "one@x.com")
	createTestIdentity(t, db, "two@x.com")
	createTestIdentity(t, db, "three@x.com")
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestFindByEmail_CaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	created := createTestIdentity(t, db, "mixed@case.com")

	found, err := db.FindByEmail(context.Background(), "MIXED@CASE.COM")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("FindByEmail() ID = %q, want %q", found.ID, created.ID)
	}
}

func TestFindByEmail_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.FindByEmail(context.Background(), "nobody@x.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("FindByEmail() error = %v, want ErrNotFound", err)
	}
}

func TestFindByProviderID(t *testing.T) {
	db := newTestDB(t)

	identity := &model.Identity{
		Email:      "oauth@x.com",
		Name:       "OAuth User",
		GoogleID:   "g-123",
		IsVerified: true,
	}
	if err := db.Create(context.Background(), identity); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := db.FindByProviderID(context.Background(), model.ProviderGoogle, "g-123")
	if err != nil {
		t.Fatalf("FindByProviderID() error = %v", err)
	}
	if found.ID != identity.ID {
		t.Errorf("FindByProviderID() ID = %q, want %q", found.ID, identity.ID)
	}

	// The same subject under the other provider must not match.
	_, err = db.FindByProviderID(context.Background(), model.ProviderMicrosoft, "g-123")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("FindByProviderID(microsoft) error = %v, want ErrNotFound", err)
	}
}

func TestFindByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.FindByID(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("FindByID() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// SAVE TESTS
// =========================================================================

func TestSave_LinkProviderAndVerify(t *testing.T) {
	db := newTestDB(t)
	identity := createTestIdentity(t, db, "link@x.com")

	identity.SetProviderID(model.ProviderGoogle, "g-777")
	identity.IsVerified = true
	identity.ProfilePicture = "https://lh3.example.com/photo.jpg"

	if err := db.Save(context.Background(), identity); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	found, err := db.FindByEmail(context.Background(), "link@x.com")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if found.GoogleID != "g-777" {
		t.Errorf("GoogleID = %q, want g-777", found.GoogleID)
	}
	if !found.IsVerified {
		t.Error("IsVerified = false after link")
	}
	if found.ProfilePicture != "https://lh3.example.com/photo.jpg" {
		t.Errorf("ProfilePicture = %q, not updated", found.ProfilePicture)
	}
	if !found.HasPassword() {
		t.Error("HasPassword() = false, password hash should survive linking")
	}
}

func TestSave_Idempotent(t *testing.T) {
	db := newTestDB(t)
	identity := createTestIdentity(t, db, "idem@x.com")

	if err := db.Save(context.Background(), identity); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	if err := db.Save(context.Background(), identity); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
}

func TestSave_UnknownIdentity(t *testing.T) {
	db := newTestDB(t)

	ghost := &model.Identity{ID: "no-such-id", Email: "ghost@x.com", Name: "Ghost"}
	err := db.Save(context.Background(), ghost)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Save() error = %v, want ErrNotFound", err)
	}
}
