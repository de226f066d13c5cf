// Package usecase implements business logic for api key issuance, validation,
// and revocation.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	apikeysDomain "github.com/syncrete/vaultkit/internal/apikeys/domain"
)

// APIKeyRepository defines api key persistence operations.
type APIKeyRepository interface {
	Create(ctx context.Context, key *apikeysDomain.APIKey) error
	GetActiveByHash(ctx context.Context, keyHash string) (*apikeysDomain.APIKey, error)
	Revoke(ctx context.Context, keyID uuid.UUID) error
	TouchLastUsed(ctx context.Context, keyID uuid.UUID, usedAt time.Time) error
	List(ctx context.Context) ([]*apikeysDomain.APIKey, error)
}

// AuditRecorder records audit events inside the caller's transaction.
type AuditRecorder interface {
	Record(ctx context.Context, eventType, actor string, payload any) error
}

// APIKeyManager defines the api key management operations.
type APIKeyManager interface {
	// Create issues a new api key. The returned raw key is shown exactly once
	// and never stored.
	Create(ctx context.Context, name string, permissions []string, createdBy string) (*apikeysDomain.APIKey, string, error)
	// Validate checks a presented raw key. A miss (unknown, malformed, or
	// revoked key) returns (nil, nil): absence of a match is not an error.
	Validate(ctx context.Context, rawKey string) (*apikeysDomain.APIKey, error)
	// Revoke deactivates a key. Revoking an unknown or already revoked key
	// returns ErrNotFound.
	Revoke(ctx context.Context, keyID uuid.UUID) error
	// List returns all keys, active and revoked, without raw key material.
	List(ctx context.Context) ([]*apikeysDomain.APIKey, error)
}
