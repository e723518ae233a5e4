package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HmacSha256 computes HMAC-SHA-256(key, data), used by the key manager
// (out of core scope) to derive per-sequence MAC keys; exposed here since
// the core is the one consumer of the primitive.
func HmacSha256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
