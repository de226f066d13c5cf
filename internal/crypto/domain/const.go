package domain

import "fmt"

// Algorithm identifies an AEAD cipher used for envelope encryption.
type Algorithm string

const (
	// AESGCM is AES-256-GCM, hardware accelerated on most server CPUs.
	AESGCM Algorithm = "aes-gcm"
	// ChaCha20 is ChaCha20-Poly1305, preferred on platforms without AES-NI.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the required key length in bytes for all supported algorithms.
const KeySize = 32

// ParseAlgorithm converts a string to an Algorithm.
// Returns ErrUnsupportedAlgorithm for unknown values.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AESGCM:
		return AESGCM, nil
	case ChaCha20:
		return ChaCha20, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
	}
}
