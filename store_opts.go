package jagcache

import (
	"log/slog"

	"github.com/meigma/jagcache/cache"
)

// Option configures a Store.
type Option func(*Store)

// KeyFunc returns the XTEA keys of an archive, or zero keys when the archive
// is not encrypted.
type KeyFunc func(index, archive int) Keys

// WithLogger sets the logger for diagnostic output.
// Revision mismatches between containers and reference tables are reported at
// warn level; everything else is debug.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithCache enables caching of decompressed archives.
//
// When enabled, Contents and Files serve repeated reads of the same archive
// from the cache. Concurrent requests for the same archive are deduplicated.
func WithCache(c cache.Cache) Option {
	return func(s *Store) {
		s.cache = c
	}
}

// WithKeys sets the key lookup used to decrypt archives.
func WithKeys(fn KeyFunc) Option {
	return func(s *Store) {
		s.keys = fn
	}
}

// WithKeyMap decrypts the listed archives of index with their keys.
// It is a convenience over WithKeys for fixed key sets, such as map regions.
func WithKeyMap(index int, keys map[int]Keys) Option {
	return func(s *Store) {
		prev := s.keys
		s.keys = func(i, archive int) Keys {
			if i == index {
				if k, ok := keys[archive]; ok {
					return k
				}
			}
			if prev != nil {
				return prev(i, archive)
			}
			return Keys{}
		}
	}
}

// WithMaxArchiveSize limits the decompressed size of a single archive.
// Set limit to 0 to disable the limit. Defaults to 64MiB.
func WithMaxArchiveSize(limit uint64) Option {
	return func(s *Store) {
		s.maxArchiveSize = limit
	}
}

// WithLoadConcurrency sets how many reference tables Load decodes at once.
// Values < 1 are treated as 1.
func WithLoadConcurrency(n int) Option {
	return func(s *Store) {
		s.loadConcurrency = max(1, n)
	}
}
