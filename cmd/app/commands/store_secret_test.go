package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	secretsDomain "github.com/syncrete/vaultkit/internal/secrets/domain"
)

func TestRunStoreSecret(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()

	t.Run("success-text", func(t *testing.T) {
		secretID := uuid.New()
		store := &fakeSecretStore{
			storeFn: func(ctx context.Context, name string, plaintext []byte, metadata map[string]string) (*secretsDomain.Secret, error) {
				assert.Equal(t, "DATABASE_PASSWORD", name)
				assert.Equal(t, []byte("s3cret"), plaintext)
				assert.Equal(t, map[string]string{"env": "prod"}, metadata)
				return &secretsDomain.Secret{
					ID:        secretID,
					Name:      name,
					Metadata:  metadata,
					CreatedAt: time.Now().UTC(),
					Active:    true,
				}, nil
			},
		}

		var buf bytes.Buffer
		err := RunStoreSecret(ctx, store, logger, &buf, "DATABASE_PASSWORD", "s3cret", []string{"env=prod"}, "text")

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "Secret stored successfully")
		assert.Contains(t, buf.String(), secretID.String())
		assert.NotContains(t, buf.String(), "s3cret")
	})

	t.Run("success-json", func(t *testing.T) {
		store := &fakeSecretStore{
			storeFn: func(ctx context.Context, name string, plaintext []byte, metadata map[string]string) (*secretsDomain.Secret, error) {
				return &secretsDomain.Secret{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}, nil
			},
		}

		var buf bytes.Buffer
		err := RunStoreSecret(ctx, store, logger, &buf, "API_TOKEN", "value", nil, "json")

		require.NoError(t, err)
		var output map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
		assert.Equal(t, "API_TOKEN", output["name"])
		assert.NotContains(t, output, "value")
	})

	t.Run("invalid-format", func(t *testing.T) {
		var buf bytes.Buffer
		err := RunStoreSecret(ctx, &fakeSecretStore{}, logger, &buf, "NAME", "value", nil, "yaml")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid format")
	})

	t.Run("invalid-metadata", func(t *testing.T) {
		var buf bytes.Buffer
		err := RunStoreSecret(ctx, &fakeSecretStore{}, logger, &buf, "NAME", "value", []string{"bad"}, "text")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid metadata pair")
	})

	t.Run("store-error", func(t *testing.T) {
		store := &fakeSecretStore{
			storeFn: func(ctx context.Context, name string, plaintext []byte, metadata map[string]string) (*secretsDomain.Secret, error) {
				return nil, fmt.Errorf("connection refused")
			},
		}

		var buf bytes.Buffer
		err := RunStoreSecret(ctx, store, logger, &buf, "NAME", "value", nil, "text")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to store secret")
	})
}
