package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
	secretsUsecase "github.com/syncrete/vaultkit/internal/secrets/usecase"
)

// RunGetSecret retrieves and decrypts a secret. The plaintext is only printed
// with --show-value; otherwise just the metadata is shown.
func RunGetSecret(
	ctx context.Context,
	store secretsUsecase.SecretStore,
	logger *slog.Logger,
	w io.Writer,
	name string,
	showValue bool,
	format string,
) error {
	if err := validFormat(format); err != nil {
		return err
	}

	secret, err := store.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get secret: %w", err)
	}
	defer cryptoDomain.Zero(secret.Plaintext)

	logger.Info("secret retrieved", slog.String("name", secret.Name))

	if format == "json" {
		output := map[string]any{
			"id":         secret.ID.String(),
			"name":       secret.Name,
			"metadata":   secret.Metadata,
			"created_at": secret.CreatedAt,
		}
		if showValue {
			output["value"] = string(secret.Plaintext)
		}
		return writeJSON(w, output)
	}

	fmt.Fprintf(w, "  ID:      %s\n", secret.ID)
	fmt.Fprintf(w, "  Name:    %s\n", secret.Name)
	fmt.Fprintf(w, "  Created: %s\n", secret.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	for key, value := range secret.Metadata {
		fmt.Fprintf(w, "  Meta:    %s=%s\n", key, value)
	}
	if showValue {
		fmt.Fprintf(w, "  Value:   %s\n", secret.Plaintext)
	}
	return nil
}
