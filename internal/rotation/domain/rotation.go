// Package domain defines the master key rotation entities and the rotation
// state machine. A rotation snapshots every active secret, re-encrypts them
// under a freshly derived key inside one transaction, verifies the result, and
// only then publishes the new key context.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
)

// State represents the phase of a master key rotation.
type State string

const (
	StateIdle          State = "IDLE"
	StateSnapshotting  State = "SNAPSHOTTING"
	StateReencrypting  State = "REENCRYPTING"
	StateVerifying     State = "VERIFYING"
	StateCommitted     State = "COMMITTED"
	StateRolledBack    State = "ROLLED_BACK"
)

// EncryptionKeyRecord tracks one master key generation. Exactly one record is
// active at a time; deactivated records form the rotation history.
type EncryptionKeyRecord struct {
	ID            uuid.UUID
	KeyVersion    int64
	CreatedAt     time.Time
	Active        bool
	DeactivatedAt *time.Time
	RotatedBy     string
	SecretsCount  int
}

// SecretSnapshot is an immutable copy of a secret's envelope taken before
// re-encryption, keyed by the key version it was encrypted under. Snapshots
// survive a rolled-back rotation and support manual recovery.
type SecretSnapshot struct {
	ID            uuid.UUID
	SecretID      uuid.UUID
	KeyVersion    int64
	Name          string
	Envelope      cryptoDomain.Envelope
	Metadata      map[string]string
	SnapshottedAt time.Time
}

// RotationError reports a rotation that was rolled back. FailedSecrets lists
// the names that could not be re-encrypted; no stored envelope was modified.
type RotationError struct {
	FailedSecrets []string
}

func (e *RotationError) Error() string {
	return fmt.Sprintf("rotation rolled back: %d secret(s) failed re-encryption: %s",
		len(e.FailedSecrets), strings.Join(e.FailedSecrets, ", "))
}

// VerificationError reports secrets that failed the post-rotation (or
// integrity check) read-back under the current key. It is distinct from
// RotationError: the database state has already been committed.
type VerificationError struct {
	FailedSecrets []string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed for %d secret(s): %s",
		len(e.FailedSecrets), strings.Join(e.FailedSecrets, ", "))
}
