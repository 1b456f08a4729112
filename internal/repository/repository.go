package repository

import (
	"context"

	"github.com/aihub-vvit/aihub-server/internal/model"
)

// IdentityRepository is the Identity Store contract the resolution engine
// consumes. All email lookups are case-insensitive.
//
// Create must surface a duplicate-email race as apperror.ErrDuplicateEmail
// from the store's own uniqueness constraint — the engine's read-then-check
// is only a fast path. Lookups return apperror.ErrNotFound when no record
// matches.
type IdentityRepository interface {
	Create(ctx context.Context, identity *model.Identity) error
	Save(ctx context.Context, identity *model.Identity) error
	FindByID(ctx context.Context, id string) (*model.Identity, error)
	FindByEmail(ctx context.Context, email string) (*model.Identity, error)
	FindByProviderID(ctx context.Context, provider model.Provider, subject string) (*model.Identity, error)
}
