package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	secretsUsecase "github.com/syncrete/vaultkit/internal/secrets/usecase"
)

// RunStoreSecret encrypts and stores a named secret value. Storing a name that
// already exists replaces the previous value; the old row is kept inactive.
func RunStoreSecret(
	ctx context.Context,
	store secretsUsecase.SecretStore,
	logger *slog.Logger,
	w io.Writer,
	name, value string,
	metadataPairs []string,
	format string,
) error {
	if err := validFormat(format); err != nil {
		return err
	}

	metadata, err := parseMetadataPairs(metadataPairs)
	if err != nil {
		return err
	}

	secret, err := store.Store(ctx, name, []byte(value), metadata)
	if err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}

	logger.Info("secret stored",
		slog.String("name", secret.Name),
		slog.String("secret_id", secret.ID.String()),
	)

	if format == "json" {
		return writeJSON(w, map[string]any{
			"id":         secret.ID.String(),
			"name":       secret.Name,
			"metadata":   secret.Metadata,
			"created_at": secret.CreatedAt,
		})
	}

	fmt.Fprintf(w, "Secret stored successfully\n")
	fmt.Fprintf(w, "  ID:      %s\n", secret.ID)
	fmt.Fprintf(w, "  Name:    %s\n", secret.Name)
	fmt.Fprintf(w, "  Created: %s\n", secret.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}
