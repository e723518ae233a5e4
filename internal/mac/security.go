package mac

import (
	"encoding/binary"

	"github.com/hwipl/thread-core/internal/corerr"
	"github.com/hwipl/thread-core/internal/crypto"
)

// KeyManager supplies the per-key-sequence AES-CCM key and the
// monotonically increasing MAC frame counter (spec.md §4.3).
type KeyManager interface {
	CurrentKeySequence() uint32
	Key(sequence uint32) []byte
	FrameCounter() uint32
	IncrementFrameCounter()
}

// NeighborSecurity is the narrow view of a neighbor table entry the
// security layer needs to enforce replay protection (spec.md §3, §4.3).
type NeighborSecurity interface {
	LinkFrameCounter() uint32
	SetLinkFrameCounter(uint32)
	PreviousKeyValid() bool
	ClearPreviousKey()
}

// BuildNonce constructs the 13-byte CCM* nonce: source extended address,
// frame counter, security level (spec.md §4.3).
func BuildNonce(srcExtAddr [8]byte, frameCounter uint32, securityLevel uint8) []byte {
	nonce := make([]byte, crypto.NonceLen)
	copy(nonce[0:8], srcExtAddr[:])
	binary.BigEndian.PutUint32(nonce[8:12], frameCounter)
	nonce[12] = securityLevel
	return nonce
}

// keyIndexFor derives the wire key-index byte for a key sequence:
// (sequence & 0x7f) + 1.
func keyIndexFor(sequence uint32) uint8 {
	return uint8((sequence&0x7f)+1)
}

// Secure applies TX-side AES-CCM security to payload, authenticating
// header as associated data. It returns the key index and frame counter
// to place in the frame's auxiliary security header, alongside the
// sealed ciphertext and tag, and advances the key manager's frame
// counter on success (spec.md §4.3).
func Secure(km KeyManager, srcExtAddr [8]byte, sec SecurityControl, header, payload []byte) (keyIndex uint8, frameCounter uint32, ciphertext, tag []byte, kind corerr.Kind) {
	seq := km.CurrentKeySequence()
	frameCounter = km.FrameCounter()
	nonce := BuildNonce(srcExtAddr, frameCounter, sec.SecurityLevel())

	ct, tg, err := crypto.Seal(km.Key(seq), nonce, header, payload, sec.TagLength())
	if err != nil {
		return 0, 0, nil, nil, corerr.Security
	}
	km.IncrementFrameCounter()
	return keyIndexFor(seq), frameCounter, ct, tg, corerr.None
}

// resolveSequence recovers the key sequence a received keyIndex refers
// to, trying current, previous (if the neighbor's previousKey flag is
// set) and next in that order (spec.md §4.3).
func resolveSequence(km KeyManager, neighbor NeighborSecurity, keyIndex uint8) (uint32, bool) {
	cur := km.CurrentKeySequence()
	candidates := make([]uint32, 0, 3)
	candidates = append(candidates, cur)
	if neighbor.PreviousKeyValid() && cur > 0 {
		candidates = append(candidates, cur-1)
	}
	candidates = append(candidates, cur+1)

	for _, seq := range candidates {
		if keyIndexFor(seq) == keyIndex {
			return seq, true
		}
	}
	return 0, false
}

// Unsecure validates and decrypts an RX frame's payload, recovering the
// key sequence from keyIndex, verifying the frame counter against the
// neighbor's stored linkFrameCounter, and on success advancing it
// (spec.md §4.3). Any mismatch fails with Security.
func Unsecure(km KeyManager, neighbor NeighborSecurity, srcExtAddr [8]byte, sec SecurityControl, keyIndex uint8, frameCounter uint32, header, ciphertext, tag []byte) ([]byte, corerr.Kind) {
	seq, ok := resolveSequence(km, neighbor, keyIndex)
	if !ok {
		return nil, corerr.Security
	}
	if frameCounter < neighbor.LinkFrameCounter() {
		return nil, corerr.Security
	}

	nonce := BuildNonce(srcExtAddr, frameCounter, sec.SecurityLevel())
	plaintext, verified, err := crypto.Open(km.Key(seq), nonce, header, ciphertext, tag, sec.TagLength())
	if err != nil || !verified {
		return nil, corerr.Security
	}

	neighbor.SetLinkFrameCounter(frameCounter + 1)
	if seq == km.CurrentKeySequence() {
		neighbor.ClearPreviousKey()
	}
	return plaintext, corerr.None
}
