package memzero_test

import (
	"bytes"
	"testing"

	"mbank/internal/util/memzero"
)

func TestZero_ClearsAllBuffers(t *testing.T) {
	a := []byte("signing-key")
	b := []byte{1, 2, 3}
	memzero.Zero(a, b, nil)

	if !bytes.Equal(a, make([]byte, len(a))) || !bytes.Equal(b, []byte{0, 0, 0}) {
		t.Fatalf("Zero left data behind: %v %v", a, b)
	}
}
