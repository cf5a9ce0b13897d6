package repository

import (
	"context"
	"errors"

	"github.com/sean-huni/store-sub000/internal/domain"
)

// ErrDuplicateEmail is returned by Create when the email is already taken
var ErrDuplicateEmail = errors.New("email already registered")

// IdentityRepository defines the interface for identity data access
type IdentityRepository interface {
	// Create persists a new identity and fills in its ID and timestamps
	Create(ctx context.Context, identity *domain.Identity) error
	// FindByEmail looks up an identity. found is false when none exists.
	FindByEmail(ctx context.Context, email string) (identity *domain.Identity, found bool, err error)
	// ExistsByEmail checks if an identity exists with the given email
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
