package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// KeyPrefix namespaces every key built by CacheKey
const KeyPrefix = "duckling:v1:"

// Cache stores raw service responses keyed by request fingerprint
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// CacheKey fingerprints the parts of a parse request. Parts are separated by a
// NUL byte so ("ab", "c") and ("a", "bc") never collide.
func CacheKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return KeyPrefix + hex.EncodeToString(h.Sum(nil))
}
