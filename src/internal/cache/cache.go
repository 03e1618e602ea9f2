// Package cache holds small keyed blobs with a read-time TTL. Collections
// take a Cache argument instead of reaching for a process-wide singleton.
package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Cache stores values by key. Get reports a hit only when the entry is
// younger than ttl; a ttl <= 0 accepts any age, which callers use to fall
// back to stale data when a refresh fails.
type Cache interface {
	Get(key string, ttl time.Duration) ([]byte, bool)
	Set(key string, value []byte) error
}

// Kinds accepted by Open.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open builds a cache of the given kind. path is a directory for file and a
// database path for sqlite; memory ignores it.
func Open(kind, path string) (Cache, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindMemory:
		return NewMemory(), nil
	case KindFile:
		return NewFile(path)
	case KindSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown cache kind %q (want memory, file or sqlite)", kind)
	}
}

// GetJSON decodes a fresh entry into v. A corrupt entry counts as a miss.
func GetJSON(c Cache, key string, ttl time.Duration, v any) bool {
	data, ok := c.Get(key, ttl)
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(c Cache, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache %s: encode: %w", key, err)
	}
	return c.Set(key, data)
}

func fresh(storedAt, now time.Time, ttl time.Duration) bool {
	return ttl <= 0 || now.Sub(storedAt) <= ttl
}
