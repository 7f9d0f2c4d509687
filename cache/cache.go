// Package cache provides caching of decompressed archives.
//
// This package is an optional enhancement to the store: without a cache every
// ReadArchive re-reads the sector chain and re-decompresses the container.
//
// Entries are keyed by (index, archive, CRC). Including the CRC from the
// reference table means a store updated in place never serves stale contents
// for an archive whose checksum changed.
package cache

import "fmt"

// Key identifies one decompressed archive.
type Key struct {
	Index   int
	Archive int
	CRC     uint32
}

// String returns a compact form for logs.
func (k Key) String() string {
	return fmt.Sprintf("%d/%d@%08x", k.Index, k.Archive, k.CRC)
}

// Cache stores decompressed archive contents.
//
// Implementations should handle their own size limits and eviction policies.
// Implementations must be safe for concurrent use. Callers must not mutate
// slices passed to Put or returned by Get.
type Cache interface {
	// Get returns the cached contents for key.
	// Returns nil, false if the archive is not cached.
	Get(key Key) ([]byte, bool)

	// Put stores contents for key, possibly evicting older entries.
	Put(key Key, contents []byte)
}
