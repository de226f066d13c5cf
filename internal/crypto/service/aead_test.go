package service

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
)

const testContext = "vaultkit:secret"

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, cryptoDomain.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func ciphersUnderTest(t *testing.T, key []byte) map[string]AEAD {
	t.Helper()

	gcm, err := NewAESGCM(key)
	require.NoError(t, err)
	chacha, err := NewChaCha20Poly1305(key)
	require.NoError(t, err)

	return map[string]AEAD{
		"aes-gcm":           gcm,
		"chacha20-poly1305": chacha,
	}
}

func TestAEAD_RoundTrip(t *testing.T) {
	key := randomKey(t)

	for name, aead := range ciphersUnderTest(t, key) {
		t.Run(name, func(t *testing.T) {
			plaintext := []byte("the quick brown fox")

			envelope, err := aead.Seal(plaintext, testContext)
			require.NoError(t, err)
			assert.Len(t, envelope.Nonce, cryptoDomain.NonceSize)
			assert.Len(t, envelope.Tag, cryptoDomain.TagSize)
			assert.NotEqual(t, plaintext, envelope.Ciphertext)

			opened, err := aead.Open(envelope, testContext)
			require.NoError(t, err)
			assert.Equal(t, plaintext, opened)
		})
	}
}

func TestAEAD_UniqueNonces(t *testing.T) {
	key := randomKey(t)

	for name, aead := range ciphersUnderTest(t, key) {
		t.Run(name, func(t *testing.T) {
			first, err := aead.Seal([]byte("same plaintext"), testContext)
			require.NoError(t, err)
			second, err := aead.Seal([]byte("same plaintext"), testContext)
			require.NoError(t, err)

			assert.NotEqual(t, first.Nonce, second.Nonce)
			assert.NotEqual(t, first.Ciphertext, second.Ciphertext)
		})
	}
}

func TestAEAD_TamperDetection(t *testing.T) {
	key := randomKey(t)

	for name, aead := range ciphersUnderTest(t, key) {
		t.Run(name, func(t *testing.T) {
			envelope, err := aead.Seal([]byte("sensitive data"), testContext)
			require.NoError(t, err)

			// Flip one bit in every ciphertext byte position in turn.
			for i := range envelope.Ciphertext {
				tampered := envelope
				tampered.Ciphertext = append([]byte(nil), envelope.Ciphertext...)
				tampered.Ciphertext[i] ^= 0x01

				_, err := aead.Open(tampered, testContext)
				assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
			}

			// Same for the authentication tag.
			for i := range envelope.Tag {
				tampered := envelope
				tampered.Tag = append([]byte(nil), envelope.Tag...)
				tampered.Tag[i] ^= 0x80

				_, err := aead.Open(tampered, testContext)
				assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
			}
		})
	}
}

func TestAEAD_WrongKeyRejected(t *testing.T) {
	key1 := randomKey(t)
	key2 := randomKey(t)

	for name := range ciphersUnderTest(t, key1) {
		t.Run(name, func(t *testing.T) {
			sealer := ciphersUnderTest(t, key1)[name]
			opener := ciphersUnderTest(t, key2)[name]

			envelope, err := sealer.Seal([]byte("payload"), testContext)
			require.NoError(t, err)

			_, err = opener.Open(envelope, testContext)
			assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		})
	}
}

func TestAEAD_ContextBinding(t *testing.T) {
	key := randomKey(t)

	for name, aead := range ciphersUnderTest(t, key) {
		t.Run(name, func(t *testing.T) {
			envelope, err := aead.Seal([]byte("payload"), "vaultkit:secret")
			require.NoError(t, err)

			_, err = aead.Open(envelope, "vaultkit:api-key")
			assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		})
	}
}

func TestAEAD_MalformedEnvelope(t *testing.T) {
	key := randomKey(t)

	for name, aead := range ciphersUnderTest(t, key) {
		t.Run(name, func(t *testing.T) {
			_, err := aead.Open(cryptoDomain.Envelope{
				Nonce:      []byte("short"),
				Ciphertext: []byte("data"),
				Tag:        make([]byte, cryptoDomain.TagSize),
			}, testContext)
			assert.ErrorIs(t, err, cryptoDomain.ErrMalformedEnvelope)
		})
	}
}

func TestNewAESGCM_InvalidKeySize(t *testing.T) {
	_, err := NewAESGCM(make([]byte, 16))
	assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
}

func TestNewChaCha20Poly1305_InvalidKeySize(t *testing.T) {
	_, err := NewChaCha20Poly1305(make([]byte, 16))
	assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
}

func TestAEADManager_CreateCipher(t *testing.T) {
	manager := NewAEADManager()
	key := randomKey(t)

	cipher, err := manager.CreateCipher(key, cryptoDomain.AESGCM)
	require.NoError(t, err)
	assert.IsType(t, &AESGCMCipher{}, cipher)

	cipher, err = manager.CreateCipher(key, cryptoDomain.ChaCha20)
	require.NoError(t, err)
	assert.IsType(t, &ChaCha20Poly1305Cipher{}, cipher)

	_, err = manager.CreateCipher(make([]byte, 16), cryptoDomain.AESGCM)
	assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)

	_, err = manager.CreateCipher(key, cryptoDomain.Algorithm("rot13"))
	assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedAlgorithm)
}
