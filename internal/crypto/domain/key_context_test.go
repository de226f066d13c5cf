package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyContextHolder_Empty(t *testing.T) {
	h := NewKeyContextHolder(nil)
	_, err := h.Current()
	assert.ErrorIs(t, err, ErrKeyContextNotLoaded)
}

func TestKeyContextHolder_PublishAndCurrent(t *testing.T) {
	first := NewKeyContext(make([]byte, KeySize), AESGCM)
	h := NewKeyContextHolder(first)

	got, err := h.Current()
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := &KeyContext{Version: first.Version + 1, Key: make([]byte, KeySize), Algorithm: AESGCM}
	previous := h.Publish(second)
	assert.Equal(t, first, previous)

	got, err = h.Current()
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestKeyContextHolder_Close(t *testing.T) {
	key := []byte{1, 2, 3}
	h := NewKeyContextHolder(&KeyContext{Version: 1, Key: key, Algorithm: ChaCha20})
	h.Close()

	_, err := h.Current()
	assert.ErrorIs(t, err, ErrKeyContextNotLoaded)
	assert.Equal(t, []byte{0, 0, 0}, key, "key material should be zeroed on close")
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("aes-gcm")
	require.NoError(t, err)
	assert.Equal(t, AESGCM, alg)

	alg, err = ParseAlgorithm("chacha20-poly1305")
	require.NoError(t, err)
	assert.Equal(t, ChaCha20, alg)

	_, err = ParseAlgorithm("des")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestEnvelope_Validate(t *testing.T) {
	valid := &Envelope{
		Nonce:      make([]byte, NonceSize),
		Ciphertext: []byte("data"),
		Tag:        make([]byte, TagSize),
	}
	assert.NoError(t, valid.Validate())

	badNonce := &Envelope{Nonce: make([]byte, 8), Ciphertext: []byte("data"), Tag: make([]byte, TagSize)}
	assert.ErrorIs(t, badNonce.Validate(), ErrMalformedEnvelope)

	badTag := &Envelope{Nonce: make([]byte, NonceSize), Ciphertext: []byte("data"), Tag: make([]byte, 8)}
	assert.ErrorIs(t, badTag.Validate(), ErrMalformedEnvelope)

	empty := &Envelope{Nonce: make([]byte, NonceSize), Tag: make([]byte, TagSize)}
	assert.ErrorIs(t, empty.Validate(), ErrMalformedEnvelope)
}
