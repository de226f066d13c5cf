package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apikeysDomain "github.com/syncrete/vaultkit/internal/apikeys/domain"
)

func TestRunCreateAPIKey(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	rawKey := "vk_0123456789abcdef0123456789abcdef"

	t.Run("success-text", func(t *testing.T) {
		manager := &fakeAPIKeyManager{
			createFn: func(ctx context.Context, name string, permissions []string, createdBy string) (*apikeysDomain.APIKey, string, error) {
				assert.Equal(t, "ci-deploy", name)
				assert.Equal(t, []string{"secrets:read"}, permissions)
				assert.Equal(t, "ops", createdBy)
				return &apikeysDomain.APIKey{
					ID:          uuid.New(),
					Name:        name,
					Permissions: permissions,
					CreatedBy:   createdBy,
					CreatedAt:   time.Now().UTC(),
					Active:      true,
				}, rawKey, nil
			},
		}

		var buf bytes.Buffer
		err := RunCreateAPIKey(ctx, manager, logger, &buf, "ci-deploy", []string{"secrets:read"}, "ops", "text")

		require.NoError(t, err)
		assert.Contains(t, buf.String(), rawKey)
		assert.Contains(t, buf.String(), "It will not be shown again")
	})

	t.Run("success-json", func(t *testing.T) {
		manager := &fakeAPIKeyManager{
			createFn: func(ctx context.Context, name string, permissions []string, createdBy string) (*apikeysDomain.APIKey, string, error) {
				return &apikeysDomain.APIKey{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}, rawKey, nil
			},
		}

		var buf bytes.Buffer
		err := RunCreateAPIKey(ctx, manager, logger, &buf, "ci-deploy", nil, "ops", "json")

		require.NoError(t, err)
		var output map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
		assert.Equal(t, rawKey, output["key"])
	})

	t.Run("create-error", func(t *testing.T) {
		manager := &fakeAPIKeyManager{
			createFn: func(ctx context.Context, name string, permissions []string, createdBy string) (*apikeysDomain.APIKey, string, error) {
				return nil, "", errors.New("duplicate name")
			},
		}

		var buf bytes.Buffer
		err := RunCreateAPIKey(ctx, manager, logger, &buf, "ci-deploy", nil, "ops", "text")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create api key")
	})

	t.Run("invalid-format", func(t *testing.T) {
		var buf bytes.Buffer
		err := RunCreateAPIKey(ctx, &fakeAPIKeyManager{}, logger, &buf, "ci-deploy", nil, "ops", "csv")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid format")
	})
}
