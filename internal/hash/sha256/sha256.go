// Package sha256 computes the resume digests recorded in fallback records, so operators can
// match a record to the stored upload.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hex returns the hex-encoded SHA-256 digest of data, or "" for empty input.
func Hex(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
