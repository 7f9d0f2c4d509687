package jagcache

import (
	"fmt"
	"iter"

	"github.com/meigma/jagcache/internal/cachetype"
	reftable "github.com/meigma/jagcache/internal/index"
)

// Index is the loaded metadata of one index.
type Index struct {
	id          int
	table       *reftable.Table
	compression Compression
	crc         uint32
	codec       *codec
}

// ID returns the index id.
func (i *Index) ID() int { return i.id }

// Type returns the id as an IndexType.
func (i *Index) Type() IndexType { return IndexType(i.id) }

// Protocol returns the reference table format version (5 to 7).
func (i *Index) Protocol() int { return i.table.Protocol }

// Revision returns the reference table revision, or -1 for protocol 5
// tables, which carry none.
func (i *Index) Revision() int { return i.table.Revision }

// Named reports whether archives and files carry name hashes.
func (i *Index) Named() bool { return i.table.Named }

// Compression returns the codec the reference table was stored with.
func (i *Index) Compression() Compression { return i.compression }

// CRC returns the checksum of the stored reference table container.
func (i *Index) CRC() uint32 { return i.crc }

// Len returns the number of archives in the index.
func (i *Index) Len() int { return i.table.Len() }

// Archive returns the archive with the given id.
func (i *Index) Archive(id int) (*Archive, error) {
	meta, ok := i.table.Lookup(id)
	if !ok {
		return nil, cachetype.Locate(ErrArchiveNotFound, i.id, id, -1, -1)
	}
	return i.archive(meta), nil
}

// FindArchiveByName returns the archive whose name hashes like name.
//
// Only hashes are stored, so distinct names can collide. When several archives
// share the hash the one with the lowest id is returned.
func (i *Index) FindArchiveByName(name string) (*Archive, error) {
	meta, ok := i.table.LookupName(reftable.Hash(name))
	if !i.table.Named || !ok {
		return nil, cachetype.Locate(fmt.Errorf("%w: name %q", ErrArchiveNotFound, name), i.id, -1, -1, -1)
	}
	return i.archive(meta), nil
}

// Archives returns an iterator over archives in ascending id order.
func (i *Index) Archives() iter.Seq[*Archive] {
	return func(yield func(*Archive) bool) {
		for meta := range i.table.Archives() {
			if !yield(i.archive(meta)) {
				return
			}
		}
	}
}

func (i *Index) archive(meta *reftable.Archive) *Archive {
	return &Archive{index: i.id, meta: meta, codec: i.codec}
}

// NameHash returns the hash reference tables store for name.
func NameHash(name string) int32 {
	return reftable.Hash(name)
}
