package serialization

import (
	"crypto/sha256"
	"encoding/hex"
)

// metadataChecksumKey is the metadata entry holding the data section checksum.
const metadataChecksumKey = "sha256"

// computeChecksum returns the hex-encoded SHA-256 of data.
func computeChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
