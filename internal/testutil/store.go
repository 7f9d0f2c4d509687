package testutil

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"testing"

	"github.com/meigma/jagcache/internal/storage"
)

// SectorArena builds a data file and idx tables sector by sector.
// Sector 0 is reserved, as in real stores.
type SectorArena struct {
	data    []byte
	indices map[int][]byte
}

// NewSectorArena returns an arena holding only the reserved sector.
func NewSectorArena() *SectorArena {
	return &SectorArena{
		data:    make([]byte, storage.SectorSize),
		indices: make(map[int][]byte),
	}
}

// Sectors returns the number of sectors allocated so far.
func (a *SectorArena) Sectors() int {
	return len(a.data) / storage.SectorSize
}

// Put appends raw as a chain of freshly allocated sectors and records it in
// the idx table of index. It returns the sectors used, in chain order.
func (a *SectorArena) Put(tb testing.TB, index, archive int, raw []byte) []int {
	tb.Helper()
	n := max(1, (len(raw)+payloadSize(archive)-1)/payloadSize(archive))
	first := a.Sectors()
	sectors := make([]int, n)
	for i := range sectors {
		sectors[i] = first + i
	}
	a.PutAt(tb, index, archive, raw, sectors)
	return sectors
}

// PutAt writes raw across the given sectors, in order, and records it in the
// idx table of index. It lets tests build out-of-order or cross-linked chains.
func (a *SectorArena) PutAt(tb testing.TB, index, archive int, raw []byte, sectors []int) {
	tb.Helper()
	chunk := payloadSize(archive)
	if len(sectors)*chunk < len(raw) {
		tb.Fatalf("testutil: %d sectors cannot hold %d bytes", len(sectors), len(raw))
	}
	for part, sector := range sectors {
		next := 0
		if part+1 < len(sectors) {
			next = sectors[part+1]
		}
		start := min(part*chunk, len(raw))
		end := min(start+chunk, len(raw))
		a.WriteSector(sector, SectorHeader(index, archive, part, next), raw[start:end])
	}
	a.SetEntry(index, archive, len(raw), sectors[0])
}

// WriteSector writes header and payload at sector, growing the arena with
// zeroed sectors as needed.
func (a *SectorArena) WriteSector(sector int, header, payload []byte) {
	end := (sector + 1) * storage.SectorSize
	if end > len(a.data) {
		a.data = append(a.data, make([]byte, end-len(a.data))...)
	}
	off := sector * storage.SectorSize
	n := copy(a.data[off:end], header)
	copy(a.data[off+n:end], payload)
}

// SetEntry writes the 6-byte idx record of archive in index.
func (a *SectorArena) SetEntry(index, archive, length, sector int) {
	tbl := a.indices[index]
	if need := (archive + 1) * 6; need > len(tbl) {
		tbl = append(tbl, make([]byte, need-len(tbl))...)
	}
	off := archive * 6
	tbl[off] = byte(length >> 16)
	tbl[off+1] = byte(length >> 8)
	tbl[off+2] = byte(length)
	tbl[off+3] = byte(sector >> 16)
	tbl[off+4] = byte(sector >> 8)
	tbl[off+5] = byte(sector)
	a.indices[index] = tbl
}

// Data returns the data file contents.
func (a *SectorArena) Data() []byte { return a.data }

// IndexTable returns the idx table of index, or nil if nothing was put there.
func (a *SectorArena) IndexTable(index int) []byte { return a.indices[index] }

// Indices returns the ids of every idx table written, meta index included.
func (a *SectorArena) Indices() []int {
	ids := make([]int, 0, len(a.indices))
	for id := range a.indices {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Disk returns an in-memory storage.Disk over the arena.
func (a *SectorArena) Disk(opts ...storage.Option) *storage.Disk {
	indices := make(map[int]storage.ByteSource)
	for id, tbl := range a.indices {
		if id != storage.MetaIndex {
			indices[id] = NewMockByteSource(tbl)
		}
	}
	return storage.New(NewMockByteSource(a.data), NewMockByteSource(a.indices[storage.MetaIndex]), indices, opts...)
}

// WriteDir writes the data file and idx tables into dir.
func (a *SectorArena) WriteDir(tb testing.TB, dir string) {
	tb.Helper()
	write := func(name string, b []byte) {
		if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
			tb.Fatalf("write %s: %v", name, err)
		}
	}
	write(storage.DataFileName, a.data)
	for id, tbl := range a.indices {
		write(storage.IndexFilePrefix+strconv.Itoa(id), tbl)
	}
	if _, ok := a.indices[storage.MetaIndex]; !ok {
		write(storage.IndexFilePrefix+strconv.Itoa(storage.MetaIndex), nil)
	}
}

// SectorHeader encodes a sector header, extended for archive ids above 0xFFFF.
func SectorHeader(index, archive, part, next int) []byte {
	if archive > 0xFFFF {
		return []byte{
			byte(archive >> 24), byte(archive >> 16), byte(archive >> 8), byte(archive),
			byte(part >> 8), byte(part),
			byte(next >> 16), byte(next >> 8), byte(next),
			byte(index),
		}
	}
	return []byte{
		byte(archive >> 8), byte(archive),
		byte(part >> 8), byte(part),
		byte(next >> 16), byte(next >> 8), byte(next),
		byte(index),
	}
}

func payloadSize(archive int) int {
	return storage.SectorSize - len(SectorHeader(0, archive, 0, 0))
}
