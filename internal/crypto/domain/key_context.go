package domain

import (
	"sync/atomic"
	"time"
)

// KeyContext is the explicit, injectable decryption key state: the current
// master key bytes and the version they belong to. Components receive a
// KeyContext (or the holder below) instead of re-reading ambient process
// state at the moment of use.
type KeyContext struct {
	// Version is the monotonically increasing key version (unix timestamp of
	// the rotation that produced it).
	Version int64
	// Key is the 32-byte master key derived from the current passphrase material.
	Key []byte
	// Algorithm is the AEAD cipher secrets are sealed with under this key.
	Algorithm Algorithm
}

// NewKeyContext builds a KeyContext with a time-based version.
func NewKeyContext(key []byte, alg Algorithm) *KeyContext {
	return &KeyContext{
		Version:   time.Now().UTC().Unix(),
		Key:       key,
		Algorithm: alg,
	}
}

// KeyContextHolder publishes the authoritative KeyContext atomically.
// The rotation coordinator owns the single transition; readers always observe
// either the old context or the new one, never a partial update.
type KeyContextHolder struct {
	current atomic.Pointer[KeyContext]
}

// NewKeyContextHolder creates a holder with an optional initial context.
func NewKeyContextHolder(kc *KeyContext) *KeyContextHolder {
	h := &KeyContextHolder{}
	if kc != nil {
		h.current.Store(kc)
	}
	return h
}

// Current returns the published KeyContext, or ErrKeyContextNotLoaded if no
// context has been published yet.
func (h *KeyContextHolder) Current() (*KeyContext, error) {
	kc := h.current.Load()
	if kc == nil {
		return nil, ErrKeyContextNotLoaded
	}
	return kc, nil
}

// Publish atomically replaces the current KeyContext and returns the previous
// one so the caller can zero its key material once no reader needs it.
func (h *KeyContextHolder) Publish(kc *KeyContext) *KeyContext {
	return h.current.Swap(kc)
}

// Close zeroes and drops the current context. Call on shutdown.
func (h *KeyContextHolder) Close() {
	if kc := h.current.Swap(nil); kc != nil {
		Zero(kc.Key)
	}
}
