package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// maxKeyPart is the longest key part stored verbatim. Longer parts, such
// as registry URLs with query strings, are replaced by their hash.
const maxKeyPart = 128

// hashKey returns prefix:hash(parts). Parts are NUL-separated so that
// ("a:b", "c") and ("a", "b:c") differ.
func hashKey(prefix string, parts ...string) string {
	return prefix + ":" + Hash([]byte(strings.Join(parts, "\x00")))
}

// compactKey keeps short parts readable and hashes long ones.
func compactKey(part string) string {
	if len(part) <= maxKeyPart {
		return part
	}
	return "sha256-" + Hash([]byte(part))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
