package domain

import (
	"github.com/syncrete/vaultkit/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// so callers can branch on intent without seeing cryptographic detail.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	// All keys must be exactly 32 bytes (256 bits).
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates an authenticated decryption failed.
	//
	// This covers wrong keys, tampered ciphertext, and mismatched context
	// bindings. The specific cause is deliberately not disclosed to prevent
	// information leakage.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrMalformedEnvelope indicates a stored envelope is structurally invalid
	// (wrong nonce or tag length, empty ciphertext). Treated like a failed
	// decryption by callers: the envelope never yields plaintext.
	ErrMalformedEnvelope = errors.Wrap(errors.ErrInvalidInput, "malformed envelope")

	// ErrKeyContextNotLoaded indicates no key context has been published yet.
	ErrKeyContextNotLoaded = errors.New("key context not loaded")
)
