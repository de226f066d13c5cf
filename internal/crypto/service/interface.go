// Package service implements cryptographic services for envelope encryption
// and master key derivation.
package service

import (
	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
)

// AEAD provides authenticated encryption of a single value into a
// self-describing envelope. The context string is bound as associated data:
// an envelope sealed with one context can only be opened with the same one.
type AEAD interface {
	// Seal encrypts plaintext with a fresh random nonce and returns the envelope.
	Seal(plaintext []byte, context string) (cryptoDomain.Envelope, error)
	// Open authenticates and decrypts an envelope. It fails closed: any tag
	// verification failure or malformed envelope returns ErrDecryptionFailed
	// or ErrMalformedEnvelope, never partial plaintext.
	Open(envelope cryptoDomain.Envelope, context string) ([]byte, error)
}

// AEADManager creates AEAD cipher instances for a key and algorithm.
type AEADManager interface {
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyDeriver derives the symmetric master key from passphrase material.
type KeyDeriver interface {
	// Derive is a pure function of its input: same material, same key.
	Derive(material []byte) ([]byte, error)
}

// KeyMaterialStore persists the passphrase material the master key is derived
// from, so a restarted process can rederive the identical key. Material is
// kept both as "current" and under each key version: rotation writes the
// versioned copy before committing, and startup resolves the copy matching
// the active key record. Implementations must create storage locations with
// owner-only permissions.
type KeyMaterialStore interface {
	Load() ([]byte, error)
	LoadVersion(version int64) ([]byte, error)
	Save(material []byte) error
	SaveVersion(version int64, material []byte) error
}
