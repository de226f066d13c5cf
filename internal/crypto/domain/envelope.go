// Package domain defines the core cryptographic domain models for envelope encryption.
//
// A single master key, derived from passphrase material via a memory-hard KDF,
// seals every stored secret into a self-describing envelope (nonce, ciphertext,
// authentication tag). A fixed context string is bound as associated data so an
// envelope sealed for one data class cannot be silently repurposed for another.
package domain

// Envelope is the stored form of an encrypted value: the random nonce used for
// the AEAD call, the ciphertext, and the authentication tag, kept as separate
// columns at rest.
type Envelope struct {
	// Nonce is the random per-call nonce (12 bytes for both supported ciphers).
	Nonce []byte
	// Ciphertext is the encrypted payload without the authentication tag.
	Ciphertext []byte
	// Tag is the 16-byte authentication tag.
	Tag []byte
}

const (
	// NonceSize is the nonce length for both supported AEAD ciphers.
	NonceSize = 12
	// TagSize is the authentication tag length for both supported AEAD ciphers.
	TagSize = 16
)

// Validate reports whether the envelope is structurally sound. It does not
// authenticate the contents; Open does that.
func (e *Envelope) Validate() error {
	if len(e.Nonce) != NonceSize || len(e.Tag) != TagSize || len(e.Ciphertext) == 0 {
		return ErrMalformedEnvelope
	}
	return nil
}
