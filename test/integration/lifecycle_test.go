// Package integration provides end-to-end tests for the full secret lifecycle
// against a live PostgreSQL database: store, retrieve, api keys, master key
// rotation, and recovery of the derived key across process restarts.
package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncrete/vaultkit/internal/app"
	"github.com/syncrete/vaultkit/internal/config"
	"github.com/syncrete/vaultkit/internal/testutil"
)

func newTestContainer(t *testing.T, keyMaterialPath string) *app.Container {
	t.Helper()

	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_CONNECTION_STRING", testutil.GetPostgresTestDSN())
	t.Setenv("KEY_MATERIAL_PATH", keyMaterialPath)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("METRICS_ENABLED", "false")

	return app.NewContainer(config.Load())
}

func TestSecretLifecycle(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	ctx := context.Background()
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	testutil.CleanupPostgresDB(t, db)

	keyMaterialPath := filepath.Join(t.TempDir(), "key_material")
	container := newTestContainer(t, keyMaterialPath)
	defer func() {
		require.NoError(t, container.Shutdown(context.Background()))
	}()

	store, err := container.SecretStore(ctx)
	require.NoError(t, err)

	t.Run("store-and-get", func(t *testing.T) {
		stored, err := store.Store(ctx, "DATABASE_PASSWORD", []byte("hunter2"), map[string]string{"env": "test"})
		require.NoError(t, err)
		assert.True(t, stored.Active)

		secret, err := store.Get(ctx, "DATABASE_PASSWORD")
		require.NoError(t, err)
		assert.Equal(t, []byte("hunter2"), secret.Plaintext)
		assert.Equal(t, "test", secret.Metadata["env"])
	})

	t.Run("update-replaces-active-row", func(t *testing.T) {
		_, err := store.Store(ctx, "DATABASE_PASSWORD", []byte("hunter3"), nil)
		require.NoError(t, err)

		secret, err := store.Get(ctx, "DATABASE_PASSWORD")
		require.NoError(t, err)
		assert.Equal(t, []byte("hunter3"), secret.Plaintext)

		active, err := store.ListActive(ctx)
		require.NoError(t, err)
		names := make(map[string]int)
		for _, s := range active {
			names[s.Name]++
		}
		assert.Equal(t, 1, names["DATABASE_PASSWORD"])
	})

	t.Run("api-key-lifecycle", func(t *testing.T) {
		manager, err := container.APIKeyManager()
		require.NoError(t, err)

		key, rawKey, err := manager.Create(ctx, "ci-deploy", []string{"secrets:read"}, "integration")
		require.NoError(t, err)
		require.NotEmpty(t, rawKey)

		validated, err := manager.Validate(ctx, rawKey)
		require.NoError(t, err)
		require.NotNil(t, validated)
		assert.Equal(t, key.ID, validated.ID)

		require.NoError(t, manager.Revoke(ctx, key.ID))

		miss, err := manager.Validate(ctx, rawKey)
		require.NoError(t, err)
		assert.Nil(t, miss)
	})

	t.Run("master-key-rotation", func(t *testing.T) {
		_, err := store.Store(ctx, "API_TOKEN", []byte("tok-123"), nil)
		require.NoError(t, err)

		coordinator, err := container.KeyRotationCoordinator(ctx)
		require.NoError(t, err)

		result, err := coordinator.RotateMasterKey(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.SecretsReencrypted, 2)
		assert.Greater(t, result.KeyVersion, result.PreviousKeyVersion)

		secret, err := store.Get(ctx, "API_TOKEN")
		require.NoError(t, err)
		assert.Equal(t, []byte("tok-123"), secret.Plaintext)

		history, err := coordinator.KeyRotationHistory(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(history), 2)
		assert.True(t, history[0].Active)
		assert.Equal(t, result.KeyVersion, history[0].KeyVersion)

		report, err := coordinator.ValidateEncryption(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, report.Failed)
	})

	t.Run("audit-trail-recorded", func(t *testing.T) {
		var count int
		err := db.QueryRow(
			"SELECT COUNT(*) FROM audit_events WHERE event_type IN ('secret_created', 'rotation_completed', 'api_key_created')",
		).Scan(&count)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, count, 3)
	})
}

func TestKeyMaterialSurvivesRestart(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	ctx := context.Background()
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	testutil.CleanupPostgresDB(t, db)

	keyMaterialPath := filepath.Join(t.TempDir(), "key_material")

	first := newTestContainer(t, keyMaterialPath)
	store, err := first.SecretStore(ctx)
	require.NoError(t, err)
	_, err = store.Store(ctx, "SURVIVOR", []byte("still-here"), nil)
	require.NoError(t, err)
	require.NoError(t, first.Shutdown(context.Background()))

	// A fresh container rederives the same master key from the material file.
	second := newTestContainer(t, keyMaterialPath)
	defer func() {
		require.NoError(t, second.Shutdown(context.Background()))
	}()

	store2, err := second.SecretStore(ctx)
	require.NoError(t, err)
	secret, err := store2.Get(ctx, "SURVIVOR")
	require.NoError(t, err)
	assert.Equal(t, []byte("still-here"), secret.Plaintext)
}
