package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apikeysDomain "github.com/syncrete/vaultkit/internal/apikeys/domain"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
	"github.com/syncrete/vaultkit/internal/testutil"
)

func newTestAPIKey(name, hash string) *apikeysDomain.APIKey {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &apikeysDomain.APIKey{
		ID:          uuid.Must(uuid.NewV7()),
		KeyHash:     hash,
		Name:        name,
		Permissions: []string{"secrets:read"},
		CreatedBy:   "ops",
		CreatedAt:   now,
		UpdatedAt:   now,
		Active:      true,
	}
}

func TestPostgreSQLAPIKeyRepository_CreateAndGetByHash(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLAPIKeyRepository(db)
	ctx := context.Background()

	key := newTestAPIKey("ci-deploy", "hash-1")
	require.NoError(t, repo.Create(ctx, key))

	got, err := repo.GetActiveByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, key.ID, got.ID)
	assert.Equal(t, "ci-deploy", got.Name)
	assert.Equal(t, []string{"secrets:read"}, got.Permissions)
	assert.Nil(t, got.LastUsed)
	assert.True(t, got.Active)

	_, err = repo.GetActiveByHash(ctx, "unknown-hash")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgreSQLAPIKeyRepository_Revoke(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLAPIKeyRepository(db)
	ctx := context.Background()

	key := newTestAPIKey("ci-deploy", "hash-1")
	require.NoError(t, repo.Create(ctx, key))

	require.NoError(t, repo.Revoke(ctx, key.ID))

	_, err := repo.GetActiveByHash(ctx, "hash-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// A second revoke finds no active row.
	err = repo.Revoke(ctx, key.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgreSQLAPIKeyRepository_TouchLastUsed(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLAPIKeyRepository(db)
	ctx := context.Background()

	key := newTestAPIKey("ci-deploy", "hash-1")
	require.NoError(t, repo.Create(ctx, key))

	usedAt := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.TouchLastUsed(ctx, key.ID, usedAt))

	got, err := repo.GetActiveByHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, got.LastUsed)
	assert.WithinDuration(t, usedAt, *got.LastUsed, time.Second)
}

func TestPostgreSQLAPIKeyRepository_List(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLAPIKeyRepository(db)
	ctx := context.Background()

	first := newTestAPIKey("first", "hash-1")
	require.NoError(t, repo.Create(ctx, first))
	second := newTestAPIKey("second", "hash-2")
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Revoke(ctx, first.ID))

	keys, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)

	// Revoked keys stay listed, flagged inactive. The stored hash must not
	// surface in listings.
	var activeCount int
	for _, key := range keys {
		if key.Active {
			activeCount++
		}
		assert.Empty(t, key.KeyHash)
	}
	assert.Equal(t, 1, activeCount)
}
