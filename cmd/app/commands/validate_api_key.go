package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	apikeysDomain "github.com/syncrete/vaultkit/internal/apikeys/domain"
	apikeysUsecase "github.com/syncrete/vaultkit/internal/apikeys/usecase"
)

// RunValidateAPIKey checks a presented raw api key. An invalid key is not an
// internal error, but the command exits non-zero so scripts can branch on it.
func RunValidateAPIKey(
	ctx context.Context,
	manager apikeysUsecase.APIKeyManager,
	logger *slog.Logger,
	w io.Writer,
	rawKey string,
	format string,
) error {
	if err := validFormat(format); err != nil {
		return err
	}

	key, err := manager.Validate(ctx, rawKey)
	if err != nil {
		return fmt.Errorf("failed to validate api key: %w", err)
	}

	if key == nil {
		logger.Info("api key rejected", slog.String("key_preview", apikeysDomain.MaskKey(rawKey)))
		if format == "json" {
			if writeErr := writeJSON(w, map[string]any{"valid": false}); writeErr != nil {
				return writeErr
			}
		} else {
			fmt.Fprintln(w, "API key is not valid")
		}
		return fmt.Errorf("api key is not valid")
	}

	logger.Info("api key validated",
		slog.String("key_id", key.ID.String()),
		slog.String("name", key.Name),
	)

	if format == "json" {
		return writeJSON(w, map[string]any{
			"valid":       true,
			"id":          key.ID.String(),
			"name":        key.Name,
			"permissions": key.Permissions,
		})
	}

	fmt.Fprintf(w, "API key is valid\n")
	fmt.Fprintf(w, "  ID:          %s\n", key.ID)
	fmt.Fprintf(w, "  Name:        %s\n", key.Name)
	fmt.Fprintf(w, "  Permissions: %v\n", key.Permissions)
	return nil
}
