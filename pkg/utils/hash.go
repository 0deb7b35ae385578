package utils

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// CalculateContentHash hashes several parts as one value. Parts are length-prefixed
// so ("ab","c") and ("a","bc") never collide.
func CalculateContentHash(parts ...string) string {
	hash := sha256.New()
	var prefix [8]byte
	for _, part := range parts {
		binary.LittleEndian.PutUint64(prefix[:], uint64(len(part)))
		hash.Write(prefix[:])
		hash.Write([]byte(part))
	}
	return hex.EncodeToString(hash.Sum(nil))
}
