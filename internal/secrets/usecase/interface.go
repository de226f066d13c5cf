// Package usecase implements business logic for secret storage and retrieval.
// It coordinates the crypto services, repositories, advisory locking, and
// audit recording around each operation.
package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
	secretsDomain "github.com/syncrete/vaultkit/internal/secrets/domain"
)

// SecretRepository defines secret persistence operations.
type SecretRepository interface {
	Create(ctx context.Context, secret *secretsDomain.Secret) error
	GetActiveByName(ctx context.Context, name string) (*secretsDomain.Secret, error)
	DeactivateByName(ctx context.Context, name string) error
	ListActive(ctx context.Context) ([]*secretsDomain.Secret, error)
	UpdateEnvelope(ctx context.Context, secretID uuid.UUID, envelope cryptoDomain.Envelope) error
}

// AuditRecorder records audit events inside the caller's transaction.
type AuditRecorder interface {
	Record(ctx context.Context, eventType, actor string, payload any) error
}

// SecretStore defines the secret management operations.
type SecretStore interface {
	// Store encrypts and persists a secret value under the current master key.
	// Updating an existing name deactivates the previous row and inserts a new
	// active one in the same transaction.
	Store(ctx context.Context, name string, plaintext []byte, metadata map[string]string) (*secretsDomain.Secret, error)
	// Get retrieves and decrypts the active secret for a name. Returns
	// ErrNotFound for unknown or inactive names.
	Get(ctx context.Context, name string) (*secretsDomain.Secret, error)
	// ListActive returns all active secrets without decrypting them.
	ListActive(ctx context.Context) ([]*secretsDomain.Secret, error)
}
