package cache

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// File keeps one file per key under a directory; the file's mtime is the
// entry's age.
type File struct {
	path string
	// Now is the clock used for age checks; nil means time.Now.
	Now func() time.Time
}

// NewFile creates the cache directory if it doesn't exist.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("file cache: path is required")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &File{path: path}, nil
}

// key generates a SHA256 hash of the key to use as a filename.
func (c *File) key(key string) string {
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash)
}

func (c *File) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *File) Get(key string, ttl time.Duration) ([]byte, bool) {
	filePath := filepath.Join(c.path, c.key(key))

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, false
	}
	if !fresh(info.ModTime(), c.now(), ttl) {
		return nil, false
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set writes through a temp file and rename so readers never see a partial
// entry. The mtime is stamped from the cache clock.
func (c *File) Set(key string, data []byte) error {
	filePath := filepath.Join(c.path, c.key(key))
	tmp, err := os.CreateTemp(c.path, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	now := c.now()
	if err := os.Chtimes(tmp.Name(), now, now); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}
