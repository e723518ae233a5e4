package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// TestHmacSha256HiThere verifies spec.md's concrete scenario 2 (RFC 4231
// test case 1: key 20×0x0b, data "Hi There").
func TestHmacSha256HiThere(t *testing.T) {
	key := bytes.Repeat([]byte{0x0b}, 20)
	data := []byte("Hi There")

	want, err := hex.DecodeString("B0344C61D8DB3853")
	if err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	got := HmacSha256(key, data)

	if !bytes.Equal(got[:8], want) {
		t.Errorf("HmacSha256(...)[:8] = %x; want %x", got[:8], want)
	}
}
