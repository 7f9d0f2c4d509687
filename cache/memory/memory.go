// Package memory implements cache.Cache as a bounded in-memory LRU.
package memory

import (
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/meigma/jagcache/cache"
)

const defaultMaxEntries = 1024

// Cache implements cache.Cache on top of an LRU list.
// It bounds both the number of entries and, optionally, their total size.
// The cache is safe for concurrent use.
type Cache struct {
	lru        *lru.Cache[cache.Key, []byte]
	maxEntries int
	maxBytes   int64 // 0 = unlimited

	mu    sync.Mutex // guards bytes across Put and the eviction callback
	bytes int64
}

// Option configures a memory cache.
type Option func(*Cache)

// WithMaxEntries sets the maximum number of cached archives. Defaults to 1024.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		c.maxEntries = n
	}
}

// WithMaxBytes sets the maximum total size of cached contents in bytes.
// Use 0 to disable the limit.
func WithMaxBytes(n int64) Option {
	return func(c *Cache) {
		c.maxBytes = n
	}
}

// New creates an empty memory cache.
func New(opts ...Option) (*Cache, error) {
	c := &Cache{maxEntries: defaultMaxEntries}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxEntries <= 0 {
		return nil, errors.New("max entries must be > 0")
	}
	if c.maxBytes < 0 {
		return nil, errors.New("max bytes must be >= 0")
	}

	l, err := lru.NewWithEvict(c.maxEntries, func(_ cache.Key, v []byte) {
		c.bytes -= int64(len(v))
	})
	if err != nil {
		return nil, err
	}
	c.lru = l
	return c, nil
}

// Get returns the cached contents for key.
func (c *Cache) Get(key cache.Key) ([]byte, bool) {
	return c.lru.Get(key)
}

// Put stores contents for key. Contents larger than the byte limit are not
// cached; otherwise least recently used entries are evicted until the cache
// fits.
func (c *Cache) Put(key cache.Key, contents []byte) {
	size := int64(len(contents))
	if c.maxBytes > 0 && size > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.lru.Peek(key); ok {
		c.bytes -= int64(len(old))
	}
	c.bytes += size
	c.lru.Add(key, contents)
	for c.maxBytes > 0 && c.bytes > c.maxBytes {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
	}
}

// Len returns the number of cached archives.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// SizeBytes returns the total size of cached contents.
func (c *Cache) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// MaxBytes returns the configured size limit (0 = unlimited).
func (c *Cache) MaxBytes() int64 {
	return c.maxBytes
}

// Purge removes every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

var _ cache.Cache = (*Cache)(nil)
