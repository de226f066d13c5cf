package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	rotationUsecase "github.com/syncrete/vaultkit/internal/rotation/usecase"
)

// RunValidateEncryption decrypts a sample of stored secrets (all of them when
// sample is 0) and reports any that fail under the current key.
func RunValidateEncryption(
	ctx context.Context,
	coordinator rotationUsecase.KeyRotationCoordinator,
	logger *slog.Logger,
	w io.Writer,
	sampleSize int,
	format string,
) error {
	if err := validFormat(format); err != nil {
		return err
	}

	report, err := coordinator.ValidateEncryption(ctx, sampleSize)
	if err != nil && report == nil {
		return fmt.Errorf("failed to validate encryption: %w", err)
	}

	logger.Info("encryption validation finished",
		slog.Int("checked", report.Checked),
		slog.Int("failed", len(report.Failed)),
	)

	if format == "json" {
		if writeErr := writeJSON(w, map[string]any{
			"checked": report.Checked,
			"failed":  report.Failed,
		}); writeErr != nil {
			return writeErr
		}
	} else {
		fmt.Fprintf(w, "Checked %d secret(s)\n", report.Checked)
		for _, name := range report.Failed {
			fmt.Fprintf(w, "  FAILED: %s\n", name)
		}
		if len(report.Failed) == 0 {
			fmt.Fprintln(w, "All sampled secrets decrypted successfully")
		}
	}

	if err != nil {
		return fmt.Errorf("encryption validation failed: %w", err)
	}
	return nil
}
