// Package crypto implements the link-layer security primitives the MAC
// consumes: AES-CCM* (IEEE 802.15.4-2006 Annex C) and HMAC-SHA-256. These
// are "standard" primitives per spec.md §1 — no corpus repo vendors a CCM
// library, so this is built directly on crypto/aes, crypto/cipher,
// crypto/hmac and crypto/sha256 (see DESIGN.md for the stdlib
// justification).
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/binary"
)

// NonceLen is the length of an 802.15.4 CCM* nonce: 8-byte extended
// address, 4-byte frame counter, 1-byte security level.
const NonceLen = 13

const lFieldLen = 2 // L: length-field octets: 15 - NonceLen

// Seal authenticates header (used as CCM associated data, left unmodified
// in the frame) and encrypts payload, returning the ciphertext as a new
// slice (payload itself is not modified) and, if tagLen > 0, the
// encrypted authentication tag. tagLen must be one
// of 0, 4, 8, 16 (§4.3's security-control-derived tag lengths).
func Seal(key, nonce, header, payload []byte, tagLen int) (ciphertext, tag []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	if len(nonce) != NonceLen {
		return nil, nil, aes.KeySizeError(len(nonce))
	}

	if tagLen > 0 {
		mic := cbcMac(block, nonce, header, payload, tagLen)
		s0 := ctrKeystreamBlock(block, nonce, 0)
		tag = make([]byte, tagLen)
		xorInto(tag, mic, s0[:tagLen])
	}
	ciphertext = ctrCrypt(block, nonce, payload, 1)
	return ciphertext, tag, nil
}

// Open decrypts ciphertext and, if tagLen > 0, verifies tag against header
// as associated data. It returns the recovered plaintext and whether
// authentication succeeded (always true when tagLen == 0).
func Open(key, nonce, header, ciphertext, tag []byte, tagLen int) (plaintext []byte, ok bool, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, false, err
	}
	if len(nonce) != NonceLen {
		return nil, false, aes.KeySizeError(len(nonce))
	}

	plaintext = ctrCrypt(block, nonce, ciphertext, 1)
	if tagLen == 0 {
		return plaintext, true, nil
	}

	mic := cbcMac(block, nonce, header, plaintext, tagLen)
	s0 := ctrKeystreamBlock(block, nonce, 0)
	want := make([]byte, tagLen)
	xorInto(want, mic, s0[:tagLen])

	return plaintext, subtle.ConstantTimeCompare(want, tag) == 1, nil
}

// cbcMac computes the CCM CBC-MAC (the un-masked, truncated-to-tagLen MIC)
// over header (associated data) and payload.
func cbcMac(block cipher.Block, nonce, header, payload []byte, tagLen int) []byte {
	flags := byte(0)
	if len(header) > 0 {
		flags |= 0x40
	}
	mPrime := byte((tagLen - 2) / 2)
	flags |= mPrime << 3
	flags |= byte(lFieldLen - 1)

	b0 := make([]byte, 16)
	b0[0] = flags
	copy(b0[1:1+NonceLen], nonce)
	binary.BigEndian.PutUint16(b0[14:16], uint16(len(payload)))

	mac := make([]byte, 16)
	block.Encrypt(mac, b0)

	if len(header) > 0 {
		adata := make([]byte, 2, 2+len(header))
		binary.BigEndian.PutUint16(adata, uint16(len(header)))
		adata = append(adata, header...)
		for _, blk := range padBlocks(adata) {
			tmp := make([]byte, 16)
			xorInto(tmp, mac, blk)
			block.Encrypt(mac, tmp)
		}
	}

	for _, blk := range padBlocks(payload) {
		tmp := make([]byte, 16)
		xorInto(tmp, mac, blk)
		block.Encrypt(mac, tmp)
	}

	return mac[:tagLen]
}

// padBlocks splits data into 16-byte blocks, zero-padding the last one.
func padBlocks(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	n := (len(data) + 15) / 16
	blocks := make([][]byte, n)
	for i := 0; i < n; i++ {
		blk := make([]byte, 16)
		start := i * 16
		end := start + 16
		if end > len(data) {
			end = len(data)
		}
		copy(blk, data[start:end])
		blocks[i] = blk
	}
	return blocks
}

// ctrKeystreamBlock computes S_counter = E(K, A_counter) for the CCM
// counter-mode block with the given counter value.
func ctrKeystreamBlock(block cipher.Block, nonce []byte, counter uint16) []byte {
	a := make([]byte, 16)
	a[0] = byte(lFieldLen - 1)
	copy(a[1:1+NonceLen], nonce)
	binary.BigEndian.PutUint16(a[14:16], counter)

	out := make([]byte, 16)
	block.Encrypt(out, a)
	return out
}

// ctrCrypt XORs data with the CCM counter-mode keystream starting at
// startCounter. Encryption and decryption are the same operation.
func ctrCrypt(block cipher.Block, nonce, data []byte, startCounter uint16) []byte {
	out := make([]byte, len(data))
	counter := startCounter
	for i := 0; i < len(data); i += 16 {
		ks := ctrKeystreamBlock(block, nonce, counter)
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		for j := i; j < end; j++ {
			out[j] = data[j] ^ ks[j-i]
		}
		counter++
	}
	return out
}

func xorInto(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}
