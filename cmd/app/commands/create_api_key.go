package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	apikeysDomain "github.com/syncrete/vaultkit/internal/apikeys/domain"
	apikeysUsecase "github.com/syncrete/vaultkit/internal/apikeys/usecase"
)

// RunCreateAPIKey issues a new api key. The raw key is printed exactly once
// and cannot be recovered afterwards: only its hash is stored.
func RunCreateAPIKey(
	ctx context.Context,
	manager apikeysUsecase.APIKeyManager,
	logger *slog.Logger,
	w io.Writer,
	name string,
	permissions []string,
	createdBy string,
	format string,
) error {
	if err := validFormat(format); err != nil {
		return err
	}

	key, rawKey, err := manager.Create(ctx, name, permissions, createdBy)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	logger.Info("api key created",
		slog.String("key_id", key.ID.String()),
		slog.String("name", key.Name),
		slog.String("key_preview", apikeysDomain.MaskKey(rawKey)),
	)

	if format == "json" {
		return writeJSON(w, map[string]any{
			"id":          key.ID.String(),
			"name":        key.Name,
			"key":         rawKey,
			"permissions": key.Permissions,
			"created_by":  key.CreatedBy,
			"created_at":  key.CreatedAt,
		})
	}

	fmt.Fprintf(w, "API key created successfully\n")
	fmt.Fprintf(w, "  ID:          %s\n", key.ID)
	fmt.Fprintf(w, "  Name:        %s\n", key.Name)
	fmt.Fprintf(w, "  Permissions: %v\n", key.Permissions)
	fmt.Fprintf(w, "\n  Key: %s\n", rawKey)
	fmt.Fprintf(w, "\nStore this key securely. It will not be shown again.\n")
	return nil
}
