package service

import (
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
)

// ChaCha20Poly1305Cipher implements the AEAD interface using ChaCha20-Poly1305.
// Efficient on platforms without hardware AES acceleration.
type ChaCha20Poly1305Cipher struct {
	aead cipher.AEAD
}

// NewChaCha20Poly1305 creates a new ChaCha20-Poly1305 cipher instance.
// The key must be exactly 32 bytes (256 bits).
func NewChaCha20Poly1305(key []byte) (*ChaCha20Poly1305Cipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	return &ChaCha20Poly1305Cipher{aead: aead}, nil
}

// Seal encrypts plaintext with a fresh random nonce, binding the context
// string as associated data.
func (c *ChaCha20Poly1305Cipher) Seal(plaintext []byte, context string) (cryptoDomain.Envelope, error) {
	return seal(c.aead, plaintext, context)
}

// Open authenticates and decrypts an envelope sealed with the same key and
// context. Returns ErrDecryptionFailed on any authentication failure.
func (c *ChaCha20Poly1305Cipher) Open(envelope cryptoDomain.Envelope, context string) ([]byte, error) {
	return open(c.aead, envelope, context)
}
