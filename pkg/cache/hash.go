package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// keyVersion is mixed into every key. Bump it when the shape of a cached
// result changes so entries written by older builds stop matching.
const keyVersion = 1

// hashKey derives a key of the form "kind:<sha256>" from the inputs that
// determine a result.
func hashKey(kind string, parts ...any) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00v%d\x00", kind, keyVersion)
	// Settings, ranges and offsets always encode.
	_ = json.NewEncoder(h).Encode(parts)
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FixtureHash returns the digest of a fixture text, the source hash every
// [Keyer] method expects.
func FixtureHash(fixture string) string {
	return Hash([]byte(fixture))
}
