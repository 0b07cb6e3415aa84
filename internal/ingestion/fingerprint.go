package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
)

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
