// Package domain defines the api key entities. Raw keys are shown once at
// creation; only a SHA-256 hash is stored, and lookups are exact matches on
// that hash.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// KeyPrefix marks every raw api key issued by this subsystem.
const KeyPrefix = "vk"

// APIKey represents an issued api key. The raw key material is never stored.
type APIKey struct {
	// ID is the unique identifier for this key.
	ID uuid.UUID
	// KeyHash is the SHA-256 hex digest of the full raw key.
	KeyHash string
	// Name is a human-readable label for the key.
	Name string
	// Permissions lists the scopes granted to this key (e.g. "secrets:read").
	Permissions []string
	// CreatedBy identifies who issued the key.
	CreatedBy string
	// CreatedAt is the UTC timestamp of issuance.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp of the last modification.
	UpdatedAt time.Time
	// LastUsed is the UTC timestamp of the last successful validation, if any.
	LastUsed *time.Time
	// Active reports whether the key is still valid. Revocation clears it.
	Active bool
}

// MaskKey returns a masked preview of a raw key, safe for logs and listings.
// Only the prefix and the last four characters survive.
func MaskKey(rawKey string) string {
	const visibleTail = 4
	if len(rawKey) <= len(KeyPrefix)+1+visibleTail {
		return rawKey
	}
	return rawKey[:len(KeyPrefix)+1] + "..." + rawKey[len(rawKey)-visibleTail:]
}
