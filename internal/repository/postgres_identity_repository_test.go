package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sean-huni/store-sub000/internal/db/migrate"
	"github.com/sean-huni/store-sub000/internal/domain"
	"github.com/sean-huni/store-sub000/pkg/config"
	"github.com/sean-huni/store-sub000/pkg/database"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupRepository(t *testing.T) *PostgresIdentityRepository {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	dbCfg := config.DatabaseConfig{
		Host:     getEnv("DATABASE_HOST", "localhost"),
		Port:     5432,
		User:     getEnv("DATABASE_USER", "postgres"),
		Password: getEnv("DATABASE_PASSWORD", "postgres"),
		DBName:   getEnv("DATABASE_DBNAME", "store"),
		SSLMode:  "disable",
	}
	require.NoError(t, migrate.Run(dbCfg.URL(), migrate.Up))

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = dbCfg.Host
	pgCfg.User = dbCfg.User
	pgCfg.Password = dbCfg.Password
	pgCfg.Database = dbCfg.DBName
	pgCfg.ConnectTimeout = 5 * time.Second

	db, err := database.NewPostgres(context.Background(), pgCfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return NewPostgresIdentityRepository(db.Pool())
}

func uniqueEmail() string {
	return fmt.Sprintf("it-%s@example.com", uuid.NewString())
}

func TestPostgresIdentityRepository_CreateAndFind(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	email := uniqueEmail()
	identity := domain.NewIdentity("John", "Doe", email, "$2a$04$hash")
	require.NoError(t, repo.Create(ctx, identity))
	assert.NotZero(t, identity.ID)
	assert.False(t, identity.CreatedAt.IsZero())

	found, ok, err := repo.FindByEmail(ctx, email)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, identity.ID, found.ID)
	assert.Equal(t, domain.RoleUser, found.Role)
	assert.Equal(t, "$2a$04$hash", found.PasswordHash)
	assert.True(t, found.Usable())

	exists, err := repo.ExistsByEmail(ctx, email)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPostgresIdentityRepository_DuplicateEmail(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	email := uniqueEmail()
	require.NoError(t, repo.Create(ctx, domain.NewIdentity("John", "Doe", email, "hash")))

	err := repo.Create(ctx, domain.NewIdentity("Jane", "Doe", email, "hash"))
	assert.True(t, errors.Is(err, ErrDuplicateEmail), "got %v", err)
}

func TestPostgresIdentityRepository_Missing(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	found, ok, err := repo.FindByEmail(ctx, uniqueEmail())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, found)

	exists, err := repo.ExistsByEmail(ctx, uniqueEmail())
	require.NoError(t, err)
	assert.False(t, exists)
}
