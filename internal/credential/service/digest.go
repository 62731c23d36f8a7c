package service

import (
	"golang.org/x/crypto/blake2b"
)

// Digest returns the BLAKE2b-256 digest of a canonical credential encoding.
// Used as the verdict cache key: equal digests mean equal credentials.
func Digest(payload []byte) [blake2b.Size256]byte {
	return blake2b.Sum256(payload)
}
