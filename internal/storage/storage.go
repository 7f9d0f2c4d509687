// Package storage reads archives out of the sector-chained data file.
//
// The data file (main_file_cache.dat2) is an arena of fixed 520-byte sectors.
// Each sector starts with a header naming the archive it belongs to, its part
// number within that archive, the next sector of the chain and the owning
// index. Per-index tables (main_file_cache.idxN) give each archive's length
// and first sector. Table 255 describes the other indices' reference tables.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/meigma/jagcache/internal/cachetype"
)

const (
	// SectorSize is the size of one data file sector, header included.
	SectorSize = 520

	// MetaIndex is the index whose archives are the other indices' reference tables.
	MetaIndex = 255

	// DataFileName is the name of the sector arena.
	DataFileName = "main_file_cache.dat2"

	// IndexFilePrefix prefixes every idx table name.
	IndexFilePrefix = "main_file_cache.idx"

	headerSize         = 8
	extendedHeaderSize = 10
)

// ByteSource provides random access to a store file.
// Implementations must be safe for concurrent ReadAt calls; *os.File is.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// Disk reads archives from a data file and its idx tables.
// Disk is read-only and safe for concurrent use.
type Disk struct {
	data    ByteSource
	meta    *IndexFile
	indices map[int]*IndexFile
	closers []io.Closer
	logger  *slog.Logger
}

// Option configures a Disk.
type Option func(*Disk)

// WithLogger sets the logger for diagnostic output.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Disk) {
		d.logger = logger
	}
}

func (d *Disk) log() *slog.Logger {
	if d.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.logger
}

// New creates a Disk over in-memory or caller-managed sources.
// indices maps index ids to their idx tables; meta is idx255.
func New(data, meta ByteSource, indices map[int]ByteSource, opts ...Option) *Disk {
	d := &Disk{
		data:    data,
		meta:    NewIndexFile(MetaIndex, meta),
		indices: make(map[int]*IndexFile, len(indices)),
	}
	for _, opt := range opts {
		opt(d)
	}
	for id, src := range indices {
		d.indices[id] = NewIndexFile(id, src)
	}
	return d
}

// Open opens the store in dir. The data file and idx255 are required; idx
// tables for ids below idx255's entry count are opened when present.
func Open(dir string, opts ...Option) (d *Disk, err error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	var closers []io.Closer
	defer func() {
		if err != nil {
			for _, c := range closers {
				_ = c.Close() //nolint:errcheck // best-effort cleanup on failed open
			}
		}
	}()

	open := func(name string) (*fileSource, error) {
		f, err := root.Open(name)
		if err != nil {
			return nil, err
		}
		closers = append(closers, f)
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		return &fileSource{File: f, size: info.Size()}, nil
	}

	data, err := open(DataFileName)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	meta, err := open(IndexFilePrefix + strconv.Itoa(MetaIndex))
	if err != nil {
		return nil, fmt.Errorf("open meta index: %w", err)
	}

	d = New(data, meta, nil, opts...)
	for id := range d.meta.Count() {
		src, err := open(IndexFilePrefix + strconv.Itoa(id))
		if errors.Is(err, fs.ErrNotExist) {
			d.log().Debug("idx table missing", "index", id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open index %d: %w", id, err)
		}
		d.indices[id] = NewIndexFile(id, src)
	}
	d.closers = closers
	d.log().Debug("store opened", "dir", dir, "indices", len(d.indices), "sectors", data.size/SectorSize)
	return d, nil
}

// Close releases file handles opened by Open.
func (d *Disk) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c.Close())
	}
	d.closers = nil
	return errors.Join(errs...)
}

// IndexCount returns the number of indices idx255 declares.
func (d *Disk) IndexCount() int {
	return d.meta.Count()
}

// HasIndex reports whether an idx table for id is available.
func (d *Disk) HasIndex(id int) bool {
	_, ok := d.indices[id]
	return ok
}

// ReadReferenceTable returns the raw container holding index id's metadata.
func (d *Disk) ReadReferenceTable(id int) ([]byte, error) {
	return d.read(d.meta, id)
}

// Read returns the raw container bytes of an archive.
func (d *Disk) Read(index, archive int) ([]byte, error) {
	idx, ok := d.indices[index]
	if !ok {
		return nil, cachetype.Locate(cachetype.ErrIndexNotFound, index, archive, -1, -1)
	}
	return d.read(idx, archive)
}

func (d *Disk) read(idx *IndexFile, archive int) ([]byte, error) {
	entry, err := idx.Entry(archive)
	if err != nil {
		return nil, err
	}
	return readChain(d.data, idx.ID(), entry)
}

// fileSource adapts an *os.File to ByteSource.
type fileSource struct {
	*os.File
	size int64
}

func (f *fileSource) Size() int64 { return f.size }
