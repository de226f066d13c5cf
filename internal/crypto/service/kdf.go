package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/scrypt"

	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
)

// Fixed, versioned KDF salt. Bump the version suffix if the parameters below
// ever change, so old and new derivations can never be confused.
const kdfSalt = "vaultkit-kdf-v1"

// scrypt parameters: memory-hard enough for passphrase-class inputs while
// keeping startup derivation under a second on server hardware.
const (
	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

// ScryptDeriver implements KeyDeriver using scrypt over the fixed versioned salt.
// Derivation is a pure function of the passphrase material argument; it never
// reads ambient process state.
type ScryptDeriver struct{}

// NewScryptDeriver creates a new ScryptDeriver.
func NewScryptDeriver() *ScryptDeriver {
	return &ScryptDeriver{}
}

// Derive produces the 32-byte master key from passphrase material.
func (d *ScryptDeriver) Derive(material []byte) ([]byte, error) {
	if len(material) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "empty key material")
	}

	key, err := scrypt.Key(material, []byte(kdfSalt), scryptN, scryptR, scryptP, cryptoDomain.KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// NewKeyMaterial generates fresh random passphrase material for a rotation.
// The material, not the derived key, is what gets persisted: every process
// reproduces the master key by running the same derivation over it.
func NewKeyMaterial() ([]byte, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, apperrors.Wrap(err, "failed to generate key material")
	}

	material := make([]byte, base64.RawURLEncoding.EncodedLen(len(raw)))
	base64.RawURLEncoding.Encode(material, raw)
	cryptoDomain.Zero(raw)
	return material, nil
}
