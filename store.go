package jagcache

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/meigma/jagcache/cache"
	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/container"
	reftable "github.com/meigma/jagcache/internal/index"
	"github.com/meigma/jagcache/internal/storage"
)

const defaultLoadConcurrency = 4

// Store provides read access to the archives of an on-disk cache.
//
// A Store is created by Open, populated by Load and read-only afterwards.
// Reads are safe for concurrent use; each decode works on its own copy of the
// bytes and never mutates the Store.
type Store struct {
	disk            *storage.Disk
	codec           *codec
	cache           cache.Cache // nil = no caching
	keys            KeyFunc
	maxArchiveSize  uint64
	loadConcurrency int
	logger          *slog.Logger

	mu      sync.RWMutex
	indices map[int]*Index // nil until Load

	readGroup singleflight.Group // zero value is valid
}

// log returns the logger, falling back to a discard logger if nil.
func (s *Store) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

func configure(opts []Option) *Store {
	s := &Store{
		maxArchiveSize:  container.DefaultMaxSize,
		loadConcurrency: defaultLoadConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.codec = &codec{
		decoder: container.NewDecoder(container.WithMaxSize(s.maxArchiveSize)),
		keys:    s.keys,
		logger:  s.log(),
	}
	return s
}

// Open opens the store in dir. The data file and idx255 must exist; idx tables
// missing from disk are treated as absent indices. Call Load before querying
// index metadata.
func Open(dir string, opts ...Option) (*Store, error) {
	s := configure(opts)
	disk, err := storage.Open(dir, storage.WithLogger(s.log()))
	if err != nil {
		return nil, err
	}
	s.disk = disk
	return s, nil
}

// newStore creates a Store over an already constructed disk.
func newStore(disk *storage.Disk, opts ...Option) *Store {
	s := configure(opts)
	s.disk = disk
	return s
}

// Close releases the store's file handles.
func (s *Store) Close() error {
	return s.disk.Close()
}

// Load reads and decodes the reference table of every index present on disk.
//
// Indices whose reference table slot is empty are skipped. Any other failure
// aborts the load; the store keeps whatever was loaded before.
func (s *Store) Load(ctx context.Context) error {
	count := s.disk.IndexCount()
	loaded := make([]*Index, count)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.loadConcurrency)
	for id := range count {
		if !s.disk.HasIndex(id) {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			idx, err := s.loadIndex(id)
			if errors.Is(err, ErrArchiveNotFound) {
				s.log().Debug("index has no reference table", "index", id)
				return nil
			}
			if err != nil {
				return fmt.Errorf("load index %d: %w", id, err)
			}
			loaded[id] = idx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	indices := make(map[int]*Index, count)
	for id, idx := range loaded {
		if idx != nil {
			indices[id] = idx
		}
	}
	s.mu.Lock()
	s.indices = indices
	s.mu.Unlock()
	s.log().Debug("store loaded", "indices", len(indices))
	return nil
}

func (s *Store) loadIndex(id int) (*Index, error) {
	raw, err := s.disk.ReadReferenceTable(id)
	if err != nil {
		return nil, err
	}
	c, err := s.codec.decoder.Decode(raw, Keys{})
	if err != nil {
		return nil, cachetype.Relocate(err, storage.MetaIndex, id, -1)
	}
	tbl, err := reftable.Parse(c.Data)
	if err != nil {
		return nil, cachetype.Relocate(err, storage.MetaIndex, id, -1)
	}
	s.log().Debug("index loaded",
		"index", id,
		"type", IndexType(id),
		"protocol", tbl.Protocol,
		"revision", tbl.Revision,
		"archives", tbl.Len())
	return &Index{
		id:          id,
		table:       tbl,
		compression: c.Compression,
		crc:         c.CRC,
		codec:       s.codec,
	}, nil
}

// Index returns the loaded index with the given id.
func (s *Store) Index(id int) (*Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.indices == nil {
		return nil, ErrNotLoaded
	}
	idx, ok := s.indices[id]
	if !ok {
		return nil, cachetype.Locate(ErrIndexNotFound, id, -1, -1, -1)
	}
	return idx, nil
}

// Indices returns an iterator over loaded indices in ascending id order.
func (s *Store) Indices() iter.Seq[*Index] {
	s.mu.RLock()
	ids := make([]int, 0, len(s.indices))
	for id := range s.indices {
		ids = append(ids, id)
	}
	indices := s.indices
	s.mu.RUnlock()
	slices.Sort(ids)

	return func(yield func(*Index) bool) {
		for _, id := range ids {
			if !yield(indices[id]) {
				return
			}
		}
	}
}

// Archive returns the metadata of an archive.
func (s *Store) Archive(index, archive int) (*Archive, error) {
	idx, err := s.Index(index)
	if err != nil {
		return nil, err
	}
	return idx.Archive(archive)
}

// FindArchive returns the archive of index whose name hashes like name.
func (s *Store) FindArchive(index int, name string) (*Archive, error) {
	idx, err := s.Index(index)
	if err != nil {
		return nil, err
	}
	return idx.FindArchiveByName(name)
}

// ReadArchive returns the raw container bytes of an archive, as stored.
// It does not require Load.
func (s *Store) ReadArchive(index, archive int) ([]byte, error) {
	return s.disk.Read(index, archive)
}

// Contents returns the decompressed contents of an archive after validating
// its container against the reference table.
//
// When caching is enabled the returned slice may be shared with the cache and
// other callers; it must not be modified.
func (s *Store) Contents(index, archive int) ([]byte, error) {
	a, err := s.Archive(index, archive)
	if err != nil {
		return nil, err
	}
	return s.contents(a)
}

// Files returns the files of an archive.
func (s *Store) Files(index, archive int) (*ArchiveFiles, error) {
	a, err := s.Archive(index, archive)
	if err != nil {
		return nil, err
	}
	data, err := s.contents(a)
	if err != nil {
		return nil, err
	}
	return a.Split(data)
}

func (s *Store) contents(a *Archive) ([]byte, error) {
	if s.cache == nil {
		return s.decompress(a)
	}

	key := cache.Key{Index: a.Index(), Archive: a.ID(), CRC: a.CRC()}
	if data, ok := s.cache.Get(key); ok {
		s.log().Debug("archive cache hit", "key", key)
		return data, nil
	}
	s.log().Debug("archive cache miss", "key", key)

	result, err, _ := s.readGroup.Do(key.String(), func() (any, error) {
		// Double-check cache
		if data, ok := s.cache.Get(key); ok {
			return data, nil
		}
		data, err := s.decompress(a)
		if err != nil {
			return nil, err
		}
		s.cache.Put(key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil //nolint:errcheck // type assertion always succeeds when err is nil
}

func (s *Store) decompress(a *Archive) ([]byte, error) {
	raw, err := s.disk.Read(a.Index(), a.ID())
	if err != nil {
		return nil, err
	}
	return a.Decompress(raw)
}
