package extract

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashLength is the number of hex characters in a truncated hash.
const HashLength = 8

// ComputeKeyedHash hashes content together with a key, so that one source
// rendered under different options gets different cache entries. The render
// cache compares it to decide whether a stored grid is still valid.
func ComputeKeyedHash(key string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(key))
	h.Write([]byte{0})
	h.Write(content)
	return truncateHash(hex.EncodeToString(h.Sum(nil)))
}

func truncateHash(hash string) string {
	if len(hash) <= HashLength {
		return hash
	}
	return hash[:HashLength]
}
