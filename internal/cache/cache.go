// Package cache is a file backed cache for charge history of closed billing periods. Entries
// are gob encoded, one file per key. A missing, unreadable or corrupt entry is a miss.
package cache

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"strings"
)

// Cache stores values as files under a directory.
type Cache struct {
	dir string
}

// New creates a Cache rooted at dir, creating the directory if necessary.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &Cache{dir: dir}, nil
}

// Get decodes the entry for key into v and reports whether an entry was found.
func (c *Cache) Get(key string, v any) bool {
	fh, err := os.Open(c.path(key))
	if err != nil {
		return false
	}
	defer fh.Close()

	return gob.NewDecoder(fh).Decode(v) == nil
}

// Set stores v under key, replacing any existing entry. The entry is written to a temp file
// first so readers never observe partial writes.
func (c *Cache) Set(key string, v any) error {
	tmp, err := os.CreateTemp(c.dir, "entry-*")
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), c.path(key))
}

// Delete removes the entry for key. Deleting an absent entry is not an error.
func (c *Cache) Delete(key string) error {
	err := os.Remove(c.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (c *Cache) path(key string) string {
	// Keys are caller controlled identifiers; flatten anything path-like to keep entries
	// inside dir.
	key = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, key)

	return filepath.Join(c.dir, key)
}
