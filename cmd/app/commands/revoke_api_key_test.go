package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/syncrete/vaultkit/internal/errors"
)

func TestRunRevokeAPIKey(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()

	t.Run("success", func(t *testing.T) {
		keyID := uuid.New()
		manager := &fakeAPIKeyManager{
			revokeFn: func(ctx context.Context, id uuid.UUID) error {
				assert.Equal(t, keyID, id)
				return nil
			},
		}

		var buf bytes.Buffer
		err := RunRevokeAPIKey(ctx, manager, logger, &buf, keyID.String())

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "revoked")
	})

	t.Run("invalid-id", func(t *testing.T) {
		var buf bytes.Buffer
		err := RunRevokeAPIKey(ctx, &fakeAPIKeyManager{}, logger, &buf, "not-a-uuid")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid api key id")
	})

	t.Run("not-found", func(t *testing.T) {
		manager := &fakeAPIKeyManager{
			revokeFn: func(ctx context.Context, id uuid.UUID) error {
				return apperrors.ErrNotFound
			},
		}

		var buf bytes.Buffer
		err := RunRevokeAPIKey(ctx, manager, logger, &buf, uuid.NewString())

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
