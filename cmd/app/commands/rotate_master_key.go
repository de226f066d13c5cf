package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	rotationDomain "github.com/syncrete/vaultkit/internal/rotation/domain"
	rotationUsecase "github.com/syncrete/vaultkit/internal/rotation/usecase"
)

// RunRotateMasterKey rotates the master encryption key. Every stored secret is
// re-encrypted under the new key inside a single transaction; on any failure
// the rotation rolls back and the old key stays active.
func RunRotateMasterKey(
	ctx context.Context,
	coordinator rotationUsecase.KeyRotationCoordinator,
	logger *slog.Logger,
	w io.Writer,
	format string,
) error {
	if err := validFormat(format); err != nil {
		return err
	}

	logger.Info("rotating master key")

	result, err := coordinator.RotateMasterKey(ctx)
	if err != nil {
		var rotationErr *rotationDomain.RotationError
		if errors.As(err, &rotationErr) {
			fmt.Fprintf(w, "Rotation rolled back. Failed secrets:\n")
			for _, name := range rotationErr.FailedSecrets {
				fmt.Fprintf(w, "  - %s\n", name)
			}
		}
		return fmt.Errorf("failed to rotate master key: %w", err)
	}

	logger.Info("master key rotated",
		slog.Int64("key_version", result.KeyVersion),
		slog.Int("secrets_reencrypted", result.SecretsReencrypted),
	)

	if format == "json" {
		return writeJSON(w, map[string]any{
			"key_version":          result.KeyVersion,
			"previous_key_version": result.PreviousKeyVersion,
			"secrets_reencrypted":  result.SecretsReencrypted,
			"state":                string(result.State),
			"duration_ms":          result.Duration.Milliseconds(),
		})
	}

	fmt.Fprintf(w, "Master key rotated successfully\n")
	fmt.Fprintf(w, "  New version:        %d\n", result.KeyVersion)
	fmt.Fprintf(w, "  Previous version:   %d\n", result.PreviousKeyVersion)
	fmt.Fprintf(w, "  Secrets re-encrypted: %d\n", result.SecretsReencrypted)
	fmt.Fprintf(w, "  Duration:           %s\n", result.Duration)
	return nil
}
