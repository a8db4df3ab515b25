package session

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/JonMunkholm/pdftables/internal/extract"
)

// ResultCache remembers normalized results by PDF content, so re-uploading
// the same file does not call the extraction service again. Cached results
// are shared and must be treated as read-only.
type ResultCache struct {
	entries *lru.Cache[uint64, *extract.Result]
}

// NewResultCache creates a cache of at most size results. A non-positive
// size returns nil; a nil cache never hits.
func NewResultCache(size int) (*ResultCache, error) {
	if size <= 0 {
		return nil, nil
	}
	entries, err := lru.New[uint64, *extract.Result](size)
	if err != nil {
		return nil, fmt.Errorf("creating result cache: %w", err)
	}
	return &ResultCache{entries: entries}, nil
}

// Key hashes PDF content.
func Key(pdf []byte) uint64 {
	return xxhash.Sum64(pdf)
}

func (c *ResultCache) Get(key uint64) (*extract.Result, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(key)
}

func (c *ResultCache) Add(key uint64, res *extract.Result) {
	if c == nil || res == nil {
		return
	}
	c.entries.Add(key, res)
}

func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
