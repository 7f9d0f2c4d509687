package storage

import (
	"fmt"
	"io"

	"github.com/meigma/jagcache/internal/cachetype"
)

// entrySize is the width of one idx record: u24 length, u24 first sector.
const entrySize = 6

// Entry locates an archive in the data file.
type Entry struct {
	Archive int
	Length  int
	Sector  int
}

// IndexFile is the fixed-width entry table of one index (main_file_cache.idxN).
type IndexFile struct {
	id  int
	src ByteSource
}

// NewIndexFile wraps src as the entry table of index id.
func NewIndexFile(id int, src ByteSource) *IndexFile {
	return &IndexFile{id: id, src: src}
}

// ID returns the index id the table belongs to.
func (f *IndexFile) ID() int { return f.id }

// Count returns the number of entry slots in the table, used or not.
func (f *IndexFile) Count() int {
	return int(f.src.Size() / entrySize)
}

// Entry returns the location of archive. Slots past the end of the table, and
// slots with a zero length or sector, do not hold an archive.
func (f *IndexFile) Entry(archive int) (Entry, error) {
	if archive < 0 || archive >= f.Count() {
		return Entry{}, cachetype.Locate(fmt.Errorf("%w: slot out of range", cachetype.ErrArchiveNotFound), f.id, archive, -1, -1)
	}

	var buf [entrySize]byte
	off := int64(archive) * entrySize
	n, err := f.src.ReadAt(buf[:], off)
	if n != entrySize {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Entry{}, cachetype.Locate(fmt.Errorf("%w: idx read: %v", cachetype.ErrCorruptStore, err), f.id, archive, -1, int(off))
	}

	e := Entry{
		Archive: archive,
		Length:  int(buf[0])<<16 | int(buf[1])<<8 | int(buf[2]),
		Sector:  int(buf[3])<<16 | int(buf[4])<<8 | int(buf[5]),
	}
	if e.Length <= 0 || e.Sector <= 0 {
		return Entry{}, cachetype.Locate(fmt.Errorf("%w: empty slot", cachetype.ErrArchiveNotFound), f.id, archive, -1, -1)
	}
	return e, nil
}
