package domain

// Zero overwrites a byte slice in place. Plaintext and key material are
// zeroed as soon as they leave scope so they do not linger on the heap.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
