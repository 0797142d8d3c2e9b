package hashing

import (
	"crypto/sha256"
	"encoding/hex"
)

// Calculate returns the hex encoded sha256 digest of data, the digest behind document ids.
func Calculate(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func CalculateFromStr(data string) string {
	return Calculate([]byte(data))
}
