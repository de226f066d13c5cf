package commands

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rotationDomain "github.com/syncrete/vaultkit/internal/rotation/domain"
	rotationUsecase "github.com/syncrete/vaultkit/internal/rotation/usecase"
)

func TestRunValidateEncryption(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()

	t.Run("all-passing", func(t *testing.T) {
		coordinator := &fakeCoordinator{
			validateFn: func(ctx context.Context, sampleSize int) (*rotationUsecase.ValidationReport, error) {
				assert.Equal(t, 10, sampleSize)
				return &rotationUsecase.ValidationReport{Checked: 10}, nil
			},
		}

		var buf bytes.Buffer
		err := RunValidateEncryption(ctx, coordinator, logger, &buf, 10, "text")

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "Checked 10 secret(s)")
		assert.Contains(t, buf.String(), "All sampled secrets decrypted successfully")
	})

	t.Run("failures-reported", func(t *testing.T) {
		coordinator := &fakeCoordinator{
			validateFn: func(ctx context.Context, sampleSize int) (*rotationUsecase.ValidationReport, error) {
				report := &rotationUsecase.ValidationReport{Checked: 3, Failed: []string{"beta"}}
				return report, &rotationDomain.VerificationError{FailedSecrets: []string{"beta"}}
			},
		}

		var buf bytes.Buffer
		err := RunValidateEncryption(ctx, coordinator, logger, &buf, 0, "text")

		require.Error(t, err)
		var verificationErr *rotationDomain.VerificationError
		assert.ErrorAs(t, err, &verificationErr)
		assert.Contains(t, buf.String(), "FAILED: beta")
	})

	t.Run("listing-error", func(t *testing.T) {
		coordinator := &fakeCoordinator{
			validateFn: func(ctx context.Context, sampleSize int) (*rotationUsecase.ValidationReport, error) {
				return nil, errors.New("database unavailable")
			},
		}

		var buf bytes.Buffer
		err := RunValidateEncryption(ctx, coordinator, logger, &buf, 0, "text")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to validate encryption")
		assert.Empty(t, buf.String())
	})
}
