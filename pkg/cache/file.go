package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileCache stores each entry as a JSON file under dir/<2 hex>/<rest>.json.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates a file-based cache in the given directory.
// The directory will be created if it doesn't exist.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

type fileEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get retrieves a value. Corrupt and expired entries are removed and
// reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var e fileEntry
	if err := json.Unmarshal(raw, &e); err != nil || e.Key != key {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if c.expired(e) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set stores a value. The file is written to a temporary name and renamed
// so concurrent readers never see a partial entry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := fileEntry{Key: key, Data: data}
	if ttl > 0 {
		e.ExpiresAt = c.now().Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes a value.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for file cache.
func (c *FileCache) Close() error {
	return nil
}

// Usage summarizes the cache directory.
type Usage struct {
	Entries int   `json:"entries"`
	Expired int   `json:"expired"`
	Bytes   int64 `json:"bytes"`
}

// Usage walks the cache directory and counts entries.
func (c *FileCache) Usage() (Usage, error) {
	var u Usage
	err := c.walk(func(path string, info os.FileInfo) {
		u.Entries++
		u.Bytes += info.Size()
		raw, err := os.ReadFile(path)
		if err != nil {
			return
		}
		var e fileEntry
		if json.Unmarshal(raw, &e) != nil || c.expired(e) {
			u.Expired++
		}
	})
	return u, err
}

// Clear removes every entry and the empty shard directories. It returns
// the number of entries removed.
func (c *FileCache) Clear() (int, error) {
	count := 0
	err := c.walk(func(path string, _ os.FileInfo) {
		if os.Remove(path) == nil {
			count++
		}
	})
	if err != nil {
		return count, err
	}

	shards, err := os.ReadDir(c.dir)
	if err != nil {
		return count, err
	}
	for _, s := range shards {
		if s.IsDir() {
			_ = os.Remove(filepath.Join(c.dir, s.Name()))
		}
	}
	return count, nil
}

// walk calls fn for every entry file. Unreadable paths are skipped.
func (c *FileCache) walk(fn func(path string, info os.FileInfo)) error {
	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}
	return filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		fn(path, info)
		return nil
	})
}

func (c *FileCache) expired(e fileEntry) bool {
	return !e.ExpiresAt.IsZero() && c.now().After(e.ExpiresAt)
}

// path converts a cache key to a file path, sharded by the first two hex
// digits of its hash.
func (c *FileCache) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(c.dir, hash[:2], hash[2:]+".json")
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
