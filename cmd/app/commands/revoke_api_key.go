package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	apikeysUsecase "github.com/syncrete/vaultkit/internal/apikeys/usecase"
)

// RunRevokeAPIKey deactivates an api key by id. Revocation is permanent.
func RunRevokeAPIKey(
	ctx context.Context,
	manager apikeysUsecase.APIKeyManager,
	logger *slog.Logger,
	w io.Writer,
	keyIDStr string,
) error {
	keyID, err := uuid.Parse(keyIDStr)
	if err != nil {
		return fmt.Errorf("invalid api key id: %w", err)
	}

	if err := manager.Revoke(ctx, keyID); err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}

	logger.Info("api key revoked", slog.String("key_id", keyID.String()))
	fmt.Fprintf(w, "API key %s revoked\n", keyID)
	return nil
}
