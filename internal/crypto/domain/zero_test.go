package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Zero(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)
}

func TestZero_Nil(t *testing.T) {
	assert.NotPanics(t, func() { Zero(nil) })
}
