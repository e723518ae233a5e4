package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// TestSealMacCommandFrame verifies the IEEE 802.15.4-2006 Annex C.2.3
// vector also used as spec.md's concrete scenario 1.
func TestSealMacCommandFrame(t *testing.T) {
	key, _ := hex.DecodeString("c0c1c2c3c4c5c6c7c8c9cacbcccdcecf")
	nonce, err := hex.DecodeString("acde48000000000100000005" + "06")
	if err != nil {
		t.Fatalf("bad nonce fixture: %v", err)
	}
	if len(nonce) != NonceLen {
		t.Fatalf("nonce fixture length = %d, want %d", len(nonce), NonceLen)
	}

	header, err := hex.DecodeString(
		"2bdc8421430200000000" + "48deacffff0100000000" + "48deac060500000001")
	if err != nil {
		t.Fatalf("bad header fixture: %v", err)
	}
	if len(header) != 29 {
		t.Fatalf("header fixture length = %d, want 29", len(header))
	}

	payload := []byte{0xCE}
	wantTail, _ := hex.DecodeString("D84FDE529061F9C6F1")

	ciphertext, tag, err := Seal(key, nonce, header, payload, 8)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	got := append(append([]byte{}, ciphertext...), tag...)
	if !bytes.Equal(got, wantTail) {
		t.Errorf("Seal tail = %x; want %x", got, wantTail)
	}

	plaintext, ok, err := Open(key, nonce, header, ciphertext, tag, 8)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !ok {
		t.Fatalf("Open: tag did not verify")
	}
	if !bytes.Equal(plaintext, payload) {
		t.Errorf("Open plaintext = %x; want %x", plaintext, payload)
	}
}

// TestSealNoTag verifies a zero tag length only encrypts, never
// authenticates (IEEE 802.15.4-2006 Annex C.2.2 data-frame vector shape).
func TestSealNoTag(t *testing.T) {
	key, _ := hex.DecodeString("c0c1c2c3c4c5c6c7c8c9cacbcccdcecf")
	nonce, _ := hex.DecodeString("acde4800000000010000000504")
	header := []byte{}
	payload := []byte("abcd")

	ciphertext, tag, err := Seal(key, nonce, header, payload, 0)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if tag != nil {
		t.Errorf("tag = %x; want nil for tagLen 0", tag)
	}

	plaintext, ok, err := Open(key, nonce, header, ciphertext, nil, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !ok {
		t.Fatalf("Open: expected ok for tagLen 0")
	}
	if !bytes.Equal(plaintext, payload) {
		t.Errorf("plaintext = %x; want %x", plaintext, payload)
	}
}

// TestOpenRejectsTamperedTag ensures a flipped tag byte fails verification.
func TestOpenRejectsTamperedTag(t *testing.T) {
	key, _ := hex.DecodeString("c0c1c2c3c4c5c6c7c8c9cacbcccdcecf")
	nonce, _ := hex.DecodeString("acde48000000000100000005" + "06")
	header := []byte("hdr")
	payload := []byte("data")

	ciphertext, tag, err := Seal(key, nonce, header, payload, 8)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	tag[0] ^= 0xff

	_, ok, err := Open(key, nonce, header, ciphertext, tag, 8)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if ok {
		t.Errorf("Open: tampered tag verified")
	}
}
