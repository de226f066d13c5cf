package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	rotationUsecase "github.com/syncrete/vaultkit/internal/rotation/usecase"
)

// RunKeyHistory lists all master key records, newest first.
func RunKeyHistory(
	ctx context.Context,
	coordinator rotationUsecase.KeyRotationCoordinator,
	logger *slog.Logger,
	w io.Writer,
	format string,
) error {
	if err := validFormat(format); err != nil {
		return err
	}

	records, err := coordinator.KeyRotationHistory(ctx)
	if err != nil {
		return fmt.Errorf("failed to get key rotation history: %w", err)
	}

	logger.Info("key rotation history retrieved", slog.Int("records", len(records)))

	if format == "json" {
		output := make([]map[string]any, 0, len(records))
		for _, record := range records {
			entry := map[string]any{
				"id":            record.ID.String(),
				"key_version":   record.KeyVersion,
				"created_at":    record.CreatedAt,
				"active":        record.Active,
				"rotated_by":    record.RotatedBy,
				"secrets_count": record.SecretsCount,
			}
			if record.DeactivatedAt != nil {
				entry["deactivated_at"] = record.DeactivatedAt
			}
			output = append(output, entry)
		}
		return writeJSON(w, output)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No key rotations recorded")
		return nil
	}

	for _, record := range records {
		status := "inactive"
		if record.Active {
			status = "active"
		}
		fmt.Fprintf(w, "version %d  %s  rotated_by=%s  secrets=%d  created=%s\n",
			record.KeyVersion,
			status,
			record.RotatedBy,
			record.SecretsCount,
			record.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	return nil
}
