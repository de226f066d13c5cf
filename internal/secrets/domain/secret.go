// Package domain defines the core domain models for secret storage. Secrets
// are envelope encrypted under the current master key; updating a secret
// deactivates the previous row and inserts a new active one, so at most one
// active row exists per name.
package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
)

// Secret represents an encrypted secret with metadata.
type Secret struct {
	// ID is the unique identifier for this secret row.
	ID uuid.UUID
	// Name is the logical key used to access the secret (e.g., "JWT_SECRET").
	Name string
	// Envelope holds the encrypted value split into nonce, ciphertext and tag.
	Envelope cryptoDomain.Envelope
	// Metadata carries caller-supplied key/value annotations. Never sensitive.
	Metadata map[string]string
	// Plaintext holds the decrypted value in memory only; must be zeroed after use.
	Plaintext []byte `json:"-"`
	// CreatedAt is the UTC timestamp when this row was created.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp of the last modification.
	UpdatedAt time.Time
	// Active reports whether this is the current row for its name.
	Active bool
}

// EncryptionContext returns the context string bound to a secret's envelope as
// associated data. A ciphertext moved to a different name fails authentication.
func EncryptionContext(name string) string {
	return "vaultkit:secret:" + name
}
