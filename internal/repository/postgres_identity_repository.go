package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sean-huni/store-sub000/internal/domain"
)

// unique_violation
const pgUniqueViolation = "23505"

// PostgresIdentityRepository implements IdentityRepository using PostgreSQL
type PostgresIdentityRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresIdentityRepository creates a new PostgresIdentityRepository
func NewPostgresIdentityRepository(pool *pgxpool.Pool) *PostgresIdentityRepository {
	return &PostgresIdentityRepository{pool: pool}
}

// Create inserts the identity. A concurrent registration of the same email
// surfaces as ErrDuplicateEmail through the unique index.
func (r *PostgresIdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, role,
			enabled, account_non_expired, account_non_locked, credentials_non_expired)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		identity.Email,
		identity.PasswordHash,
		identity.FirstName,
		identity.LastName,
		string(identity.Role),
		identity.Enabled,
		identity.AccountNonExpired,
		identity.AccountNonLocked,
		identity.CredentialsNonExpired,
	).Scan(&identity.ID, &identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert identity: %w", err)
	}
	return nil
}

// FindByEmail retrieves an identity by its exact email
func (r *PostgresIdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, bool, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, role,
			enabled, account_non_expired, account_non_locked, credentials_non_expired,
			created_at, updated_at
		FROM users
		WHERE email = $1
	`
	identity := &domain.Identity{}
	var role string
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&identity.FirstName,
		&identity.LastName,
		&role,
		&identity.Enabled,
		&identity.AccountNonExpired,
		&identity.AccountNonLocked,
		&identity.CredentialsNonExpired,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load identity: %w", err)
	}

	if identity.Role, err = domain.ParseRole(role); err != nil {
		return nil, false, fmt.Errorf("identity %d: %w", identity.ID, err)
	}
	return identity, true, nil
}

// ExistsByEmail checks if an identity exists with the given email
func (r *PostgresIdentityRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}
