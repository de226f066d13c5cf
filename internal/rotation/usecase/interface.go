// Package usecase implements the master key rotation protocol and the related
// maintenance operations (jwt secret rotation, rotation history, encryption
// validation).
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
	rotationDomain "github.com/syncrete/vaultkit/internal/rotation/domain"
	secretsDomain "github.com/syncrete/vaultkit/internal/secrets/domain"
)

// SecretRepository is the slice of secret persistence the rotation needs:
// enumerating active rows and swapping their envelopes.
type SecretRepository interface {
	ListActive(ctx context.Context) ([]*secretsDomain.Secret, error)
	UpdateEnvelope(ctx context.Context, secretID uuid.UUID, envelope cryptoDomain.Envelope) error
}

// KeyRecordRepository defines encryption key record persistence operations.
type KeyRecordRepository interface {
	Create(ctx context.Context, record *rotationDomain.EncryptionKeyRecord) error
	DeactivateActive(ctx context.Context, deactivatedAt time.Time) error
	GetActive(ctx context.Context) (*rotationDomain.EncryptionKeyRecord, error)
	ListHistory(ctx context.Context) ([]*rotationDomain.EncryptionKeyRecord, error)
}

// SecretHistoryRepository defines secret snapshot persistence operations.
type SecretHistoryRepository interface {
	Snapshot(ctx context.Context, snapshot *rotationDomain.SecretSnapshot) error
}

// SecretReader reads secrets through the normal decryption path. Used for the
// post-commit read-back verification.
type SecretReader interface {
	Get(ctx context.Context, name string) (*secretsDomain.Secret, error)
	ListActive(ctx context.Context) ([]*secretsDomain.Secret, error)
	Store(ctx context.Context, name string, plaintext []byte, metadata map[string]string) (*secretsDomain.Secret, error)
}

// AuditRecorder records audit events.
type AuditRecorder interface {
	Record(ctx context.Context, eventType, actor string, payload any) error
}

// RotationResult summarizes a completed master key rotation.
type RotationResult struct {
	KeyVersion         int64
	PreviousKeyVersion int64
	SecretsReencrypted int
	State              rotationDomain.State
	Duration           time.Duration
}

// ValidationReport summarizes an encryption validation run.
type ValidationReport struct {
	Checked int
	Failed  []string
}

// KeyRotationCoordinator owns the master key lifecycle.
type KeyRotationCoordinator interface {
	// RotateMasterKey runs the full rotation protocol: snapshot, re-encrypt,
	// verify, commit. On any re-encryption failure the entire rotation rolls
	// back and a *rotationDomain.RotationError is returned.
	RotateMasterKey(ctx context.Context) (*RotationResult, error)
	// RotateJWTSecret generates a new jwt signing secret, proves it can sign
	// and verify a token, and stores it as a managed secret.
	RotateJWTSecret(ctx context.Context) error
	// KeyRotationHistory returns all key records, newest first.
	KeyRotationHistory(ctx context.Context) ([]*rotationDomain.EncryptionKeyRecord, error)
	// ValidateEncryption decrypts a sample of active secrets (all of them when
	// sampleSize <= 0) and reports any that fail under the current key.
	ValidateEncryption(ctx context.Context, sampleSize int) (*ValidationReport, error)
}
