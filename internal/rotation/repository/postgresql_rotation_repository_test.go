package repository

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
	rotationDomain "github.com/syncrete/vaultkit/internal/rotation/domain"
	"github.com/syncrete/vaultkit/internal/testutil"
)

func newKeyRecord(version int64, active bool) *rotationDomain.EncryptionKeyRecord {
	return &rotationDomain.EncryptionKeyRecord{
		ID:         uuid.Must(uuid.NewV7()),
		KeyVersion: version,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
		Active:     active,
		RotatedBy:  "cli",
	}
}

func TestPostgreSQLKeyRecordRepository_Lifecycle(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLKeyRecordRepository(db)
	ctx := context.Background()

	_, err := repo.GetActive(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	first := newKeyRecord(100, true)
	require.NoError(t, repo.Create(ctx, first))

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)

	require.NoError(t, repo.DeactivateActive(ctx, time.Now().UTC()))
	second := newKeyRecord(200, true)
	second.SecretsCount = 3
	require.NoError(t, repo.Create(ctx, second))

	active, err = repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, 3, active.SecretsCount)

	history, err := repo.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(200), history[0].KeyVersion)
	assert.Equal(t, int64(100), history[1].KeyVersion)
	assert.False(t, history[1].Active)
	assert.NotNil(t, history[1].DeactivatedAt)
}

func TestPostgreSQLSecretHistoryRepository_Snapshot(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSecretHistoryRepository(db)
	ctx := context.Background()

	envelope := cryptoDomain.Envelope{
		Nonce:      make([]byte, cryptoDomain.NonceSize),
		Ciphertext: make([]byte, 32),
		Tag:        make([]byte, cryptoDomain.TagSize),
	}
	_, err := rand.Read(envelope.Ciphertext)
	require.NoError(t, err)

	snapshot := &rotationDomain.SecretSnapshot{
		ID:            uuid.Must(uuid.NewV7()),
		SecretID:      uuid.Must(uuid.NewV7()),
		KeyVersion:    100,
		Name:          "db-password",
		Envelope:      envelope,
		Metadata:      map[string]string{"owner": "billing"},
		SnapshottedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Snapshot(ctx, snapshot))

	// A retried rotation re-snapshots the same pair without error.
	retry := *snapshot
	retry.ID = uuid.Must(uuid.NewV7())
	require.NoError(t, repo.Snapshot(ctx, &retry))

	snapshots, err := repo.ListByKeyVersion(ctx, 100)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, snapshot.ID, snapshots[0].ID)
	assert.Equal(t, envelope, snapshots[0].Envelope)
	assert.Equal(t, map[string]string{"owner": "billing"}, snapshots[0].Metadata)

	snapshots, err = repo.ListByKeyVersion(ctx, 999)
	require.NoError(t, err)
	assert.Len(t, snapshots, 0)
}
