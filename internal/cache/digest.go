package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestSize is the raw size of a digest in bytes.
const DigestSize = sha256.Size

// Digest returns the lowercase hex SHA-256 of a resolved source text. It
// depends on the text only, never on the file path or stage.
func Digest(resolved string) string {
	sum := DigestBytes(resolved)
	return hex.EncodeToString(sum[:])
}

// DigestBytes returns the raw SHA-256 of a resolved source text.
func DigestBytes(resolved string) [DigestSize]byte {
	return sha256.Sum256([]byte(resolved))
}
