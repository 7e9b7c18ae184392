// Package cache stores full-buffer tokenizations on disk, content addressed
// by a SHA-256 digest of the source.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

const blobExt = ".json"

// DiskCache is a directory of JSON blobs keyed by content digest. The
// directory is created on the first Put. Writes go to a temp file that is
// renamed into place, so concurrent writers of the same key leave one
// complete blob behind.
type DiskCache struct {
	dir string

	// Atomic counters
	hits   int64
	misses int64
	writes int64

	createdAt time.Time
}

// NewDiskCache creates a cache rooted at dir without touching the disk
func NewDiskCache(dir string) *DiskCache {
	return &DiskCache{dir: dir, createdAt: time.Now()}
}

// Digest returns the hex SHA-256 digest of content, the cache key format
func Digest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Dir returns the cache directory
func (c *DiskCache) Dir() string {
	return c.dir
}

// Get returns the blob stored under key
func (c *DiskCache) Get(key string) ([]byte, bool) {
	if !validKey(key) {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	blob, err := os.ReadFile(c.path(key))
	if err != nil {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&c.hits, 1)
	return blob, true
}

// Put stores blob under key, replacing any previous blob
func (c *DiskCache) Put(key string, blob []byte) error {
	if !validKey(key) {
		return fmt.Errorf("invalid cache key %q", key)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmpName, c.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store cache file: %w", err)
	}

	atomic.AddInt64(&c.writes, 1)
	return nil
}

// Clear removes the cache directory and resets statistics
func (c *DiskCache) Clear() error {
	if err := os.RemoveAll(c.dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	atomic.StoreInt64(&c.writes, 0)
	return nil
}

// Stats returns hit/miss counters
func (c *DiskCache) Stats() CacheStats {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)

	hitRate := float64(0)
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Hits:      hits,
		Misses:    misses,
		Writes:    atomic.LoadInt64(&c.writes),
		HitRate:   hitRate,
		CreatedAt: c.createdAt,
		Uptime:    time.Since(c.createdAt),
	}
}

// CacheStats holds cache statistics
type CacheStats struct {
	Hits      int64
	Misses    int64
	Writes    int64
	HitRate   float64
	CreatedAt time.Time
	Uptime    time.Duration
}

func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, key+blobExt)
}

// validKey accepts plain file names only
func validKey(key string) bool {
	return key != "" && key != "." && key != ".." && !strings.ContainsAny(key, `/\`)
}
