package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	rotationUsecase "github.com/syncrete/vaultkit/internal/rotation/usecase"
)

// RunRotateJWTSecret generates, verifies, and stores a new jwt signing secret.
func RunRotateJWTSecret(
	ctx context.Context,
	coordinator rotationUsecase.KeyRotationCoordinator,
	logger *slog.Logger,
	w io.Writer,
) error {
	logger.Info("rotating jwt signing secret")

	if err := coordinator.RotateJWTSecret(ctx); err != nil {
		return fmt.Errorf("failed to rotate jwt secret: %w", err)
	}

	fmt.Fprintf(w, "JWT signing secret rotated successfully (stored as %s)\n", rotationUsecase.JWTSecretName)
	return nil
}
