package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
)

// AESGCMCipher implements the AEAD interface using AES-256-GCM.
//
// The cipher instance is stateless and safe for concurrent use. Each Seal
// generates a unique 12-byte nonce from crypto/rand; the 16-byte GCM tag is
// split off the ciphertext so the envelope stores nonce, ciphertext and tag
// as separate fields.
type AESGCMCipher struct {
	aead cipher.AEAD
}

// NewAESGCM creates a new AES-256-GCM cipher instance.
// The key must be exactly 32 bytes (256 bits).
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMCipher{aead: aead}, nil
}

// Seal encrypts plaintext with a fresh random nonce, binding the context
// string as associated data.
func (a *AESGCMCipher) Seal(plaintext []byte, context string) (cryptoDomain.Envelope, error) {
	return seal(a.aead, plaintext, context)
}

// Open authenticates and decrypts an envelope sealed with the same key and
// context. Returns ErrDecryptionFailed on any authentication failure.
func (a *AESGCMCipher) Open(envelope cryptoDomain.Envelope, context string) ([]byte, error) {
	return open(a.aead, envelope, context)
}

// seal is the shared AEAD sealing path: random nonce, context as AAD, tag
// split off the combined output.
func seal(aead cipher.AEAD, plaintext []byte, context string) (cryptoDomain.Envelope, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return cryptoDomain.Envelope{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, []byte(context))
	tagStart := len(sealed) - aead.Overhead()

	return cryptoDomain.Envelope{
		Nonce:      nonce,
		Ciphertext: sealed[:tagStart],
		Tag:        sealed[tagStart:],
	}, nil
}

// open is the shared AEAD opening path. It validates envelope structure,
// recombines ciphertext and tag, and fails closed on authentication errors.
func open(aead cipher.AEAD, envelope cryptoDomain.Envelope, context string) ([]byte, error) {
	if err := envelope.Validate(); err != nil {
		return nil, err
	}

	combined := make([]byte, 0, len(envelope.Ciphertext)+len(envelope.Tag))
	combined = append(combined, envelope.Ciphertext...)
	combined = append(combined, envelope.Tag...)

	plaintext, err := aead.Open(nil, envelope.Nonce, combined, []byte(context))
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
