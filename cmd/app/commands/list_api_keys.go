package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	apikeysUsecase "github.com/syncrete/vaultkit/internal/apikeys/usecase"
)

// RunListAPIKeys lists all api keys, active and revoked. Raw key material is
// never available here: only names, permissions, and usage timestamps.
func RunListAPIKeys(
	ctx context.Context,
	manager apikeysUsecase.APIKeyManager,
	logger *slog.Logger,
	w io.Writer,
	format string,
) error {
	if err := validFormat(format); err != nil {
		return err
	}

	keys, err := manager.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list api keys: %w", err)
	}

	logger.Info("api keys listed", slog.Int("count", len(keys)))

	if format == "json" {
		output := make([]map[string]any, 0, len(keys))
		for _, key := range keys {
			entry := map[string]any{
				"id":          key.ID.String(),
				"name":        key.Name,
				"permissions": key.Permissions,
				"created_by":  key.CreatedBy,
				"created_at":  key.CreatedAt,
				"active":      key.Active,
			}
			if key.LastUsed != nil {
				entry["last_used"] = key.LastUsed
			}
			output = append(output, entry)
		}
		return writeJSON(w, output)
	}

	if len(keys) == 0 {
		fmt.Fprintln(w, "No api keys found")
		return nil
	}

	for _, key := range keys {
		status := "revoked"
		if key.Active {
			status = "active"
		}
		lastUsed := "never"
		if key.LastUsed != nil {
			lastUsed = key.LastUsed.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s  %s  %s  permissions=%v  last_used=%s\n",
			key.ID,
			key.Name,
			status,
			key.Permissions,
			lastUsed,
		)
	}
	return nil
}
