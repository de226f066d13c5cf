// Package service implements raw api key generation and hashing.
package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	apikeysDomain "github.com/syncrete/vaultkit/internal/apikeys/domain"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
)

// KeyService generates and hashes raw api keys.
type KeyService interface {
	// Generate creates a raw key of the form vk_<id>_<secret> and returns the
	// key id, the raw key, and its SHA-256 hex hash. The raw key is never
	// stored; this is the only moment it exists server-side.
	Generate() (id uuid.UUID, rawKey string, keyHash string, err error)
	// HashKey hashes a raw key for storage or lookup.
	HashKey(rawKey string) string
	// WellFormed reports whether a presented key has the expected shape.
	// Rejecting malformed input early avoids pointless hash lookups.
	WellFormed(rawKey string) bool
}

// keyService implements KeyService using SHA-256 for key hashing.
type keyService struct{}

// NewKeyService creates a new KeyService instance.
func NewKeyService() KeyService {
	return &keyService{}
}

// Generate creates a new cryptographically secure api key.
func (k *keyService) Generate() (uuid.UUID, string, string, error) {
	id := uuid.Must(uuid.NewV7())

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return uuid.Nil, "", "", apperrors.Wrap(err, "failed to generate api key secret")
	}

	rawKey := fmt.Sprintf("%s_%s_%s",
		apikeysDomain.KeyPrefix,
		strings.ReplaceAll(id.String(), "-", ""),
		base64.RawURLEncoding.EncodeToString(secret),
	)

	return id, rawKey, k.HashKey(rawKey), nil
}

// HashKey hashes a raw key using SHA-256, hex encoded.
func (k *keyService) HashKey(rawKey string) string {
	hash := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(hash[:])
}

// WellFormed checks the vk_<id>_<secret> shape.
func (k *keyService) WellFormed(rawKey string) bool {
	parts := strings.SplitN(rawKey, "_", 3)
	return len(parts) == 3 && parts[0] == apikeysDomain.KeyPrefix && parts[1] != "" && parts[2] != ""
}
