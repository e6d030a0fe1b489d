package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// KeyPrefix namespaces all cache keys in Redis.
const KeyPrefix = "openmart"

// Key identifies a cached search response. Two requests share an entry
// when they hit the same endpoint in the same scope with byte-identical
// JSON bodies.
type Key struct {
	// Endpoint is the API path (e.g., "/api/v1/search")
	Endpoint string

	// Scope separates callers sharing one Redis, usually the API key.
	// Only a hash of it is stored.
	Scope string

	// Body is the encoded request body, cursor and limit included
	Body []byte
}

// String generates a deterministic cache key string.
// Format: openmart:<endpoint>[:<scope hash>]:<sha256(body)>
//
// Example:
//
//	openmart:api/v1/search:5e884898da280471:9f86d081884c7d65...
func (k Key) String() string {
	parts := []string{KeyPrefix}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	if k.Scope != "" {
		scope := sha256.Sum256([]byte(k.Scope))
		parts = append(parts, hex.EncodeToString(scope[:8]))
	}

	sum := sha256.Sum256(k.Body)
	parts = append(parts, hex.EncodeToString(sum[:]))

	return strings.Join(parts, ":")
}
