package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncryptionContext(t *testing.T) {
	assert.Equal(t, "vaultkit:secret:JWT_SECRET", EncryptionContext("JWT_SECRET"))
	assert.NotEqual(t, EncryptionContext("a"), EncryptionContext("b"))
}
