package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
}

// CacheKey generates a cache key from a knowledge source name and a page title.
// Titles are case-sensitive after the first letter, so they are hashed as given.
func CacheKey(source string, title string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(source) + "\x00" + title))
	return "groundcheck:v1:" + hex.EncodeToString(hash[:])
}
