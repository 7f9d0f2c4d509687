package index

import (
	"fmt"
	"iter"
	"sort"
	"strings"

	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/stream"
)

const (
	minProtocol = 5
	maxProtocol = 7

	flagNamed = 0x1
	flagSized = 0x4
)

// File is one file slot declared for an archive.
type File struct {
	ID       int
	NameHash int32
}

// Archive is the metadata of one archive.
type Archive struct {
	ID       int
	NameHash int32
	CRC      uint32
	Revision int

	// CompressedSize and DecompressedSize are only present in sized tables.
	CompressedSize   int
	DecompressedSize int

	Files []File
}

// NoRevision is the revision of tables whose protocol predates revisions.
const NoRevision = -1

// Table is a parsed reference table.
type Table struct {
	Protocol int
	Revision int // NoRevision for protocol 5
	Named    bool
	Sized    bool

	archives []Archive
	byName   map[int32]int
}

// Parse decodes a reference table.
//
// The provided data is not retained.
func Parse(data []byte) (*Table, error) {
	r := stream.NewReader(data)
	p := parser{r: r}

	t := &Table{Revision: NoRevision}
	t.Protocol = p.u8()
	if p.err == nil && (t.Protocol < minProtocol || t.Protocol > maxProtocol) {
		return nil, malformed(0, fmt.Errorf("unsupported protocol %d", t.Protocol))
	}
	if t.Protocol >= 6 {
		t.Revision = p.i32()
	}
	flagsAt := r.Offset()
	flags := p.u8()
	if p.err == nil && flags&^(flagNamed|flagSized) != 0 {
		return nil, malformed(flagsAt, fmt.Errorf("unknown flags %#x", flags))
	}
	t.Named = flags&flagNamed != 0
	t.Sized = flags&flagSized != 0

	count := p.count(t.Protocol)
	if p.err != nil {
		return nil, p.err
	}
	// Every archive needs at least one byte per field; reject absurd counts
	// before allocating.
	if count > r.Remaining() {
		return nil, malformed(r.Offset(), fmt.Errorf("archive count %d exceeds table size", count))
	}

	archives := make([]Archive, count)
	last := 0
	for i := range archives {
		at := r.Offset()
		delta := p.count(t.Protocol)
		if p.err == nil && i > 0 && delta == 0 {
			return nil, malformed(at, fmt.Errorf("duplicate archive id %d", last))
		}
		last += delta
		archives[i].ID = last
	}
	if t.Named {
		for i := range archives {
			archives[i].NameHash = int32(p.i32()) //nolint:gosec // name hashes are signed 32-bit
		}
	}
	for i := range archives {
		archives[i].CRC = uint32(p.i32()) //nolint:gosec // crc is stored as a signed int
	}
	if t.Sized {
		for i := range archives {
			archives[i].CompressedSize = p.i32()
			archives[i].DecompressedSize = p.i32()
		}
	}
	for i := range archives {
		archives[i].Revision = p.i32()
	}
	for i := range archives {
		n := p.count(t.Protocol)
		if p.err == nil && n > r.Remaining() {
			return nil, malformed(r.Offset(), fmt.Errorf("archive %d file count %d exceeds table size", archives[i].ID, n))
		}
		archives[i].Files = make([]File, n)
	}
	for i := range archives {
		last := 0
		for j := range archives[i].Files {
			last += p.count(t.Protocol)
			archives[i].Files[j].ID = last
		}
	}
	if t.Named {
		for i := range archives {
			for j := range archives[i].Files {
				archives[i].Files[j].NameHash = int32(p.i32()) //nolint:gosec // name hashes are signed 32-bit
			}
		}
	}
	if p.err != nil {
		return nil, p.err
	}

	t.archives = archives
	t.byName = make(map[int32]int)
	if t.Named {
		for i := range archives {
			if _, dup := t.byName[archives[i].NameHash]; !dup {
				t.byName[archives[i].NameHash] = i
			}
		}
	}
	return t, nil
}

// Len returns the number of archives in the table.
func (t *Table) Len() int { return len(t.archives) }

// Lookup returns the archive with the given id.
func (t *Table) Lookup(id int) (*Archive, bool) {
	i := sort.Search(len(t.archives), func(i int) bool { return t.archives[i].ID >= id })
	if i == len(t.archives) || t.archives[i].ID != id {
		return nil, false
	}
	return &t.archives[i], true
}

// LookupName returns the lowest-id archive whose name hashes to hash.
func (t *Table) LookupName(hash int32) (*Archive, bool) {
	i, ok := t.byName[hash]
	if !ok {
		return nil, false
	}
	return &t.archives[i], true
}

// Archives returns an iterator over archives in ascending id order.
func (t *Table) Archives() iter.Seq[*Archive] {
	return func(yield func(*Archive) bool) {
		for i := range t.archives {
			if !yield(&t.archives[i]) {
				return
			}
		}
	}
}

// Hash returns the 32-bit name hash used by reference tables.
// Names are hashed case-insensitively.
func Hash(name string) int32 {
	var h int32
	for _, c := range strings.ToLower(name) {
		h = int32(c) + ((h << 5) - h) //nolint:gosec // overflow is part of the hash
	}
	return h
}

func malformed(offset int, err error) error {
	return cachetype.Locate(fmt.Errorf("%w: %w", cachetype.ErrMalformedIndex, err), -1, -1, -1, offset)
}

// parser reads fields while remembering the first failure, so the table
// layout above reads top to bottom.
type parser struct {
	r   *stream.Reader
	err error
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = malformed(p.r.Offset(), err)
	}
}

func (p *parser) u8() int {
	if p.err != nil {
		return 0
	}
	v, err := p.r.Uint8()
	if err != nil {
		p.fail(err)
	}
	return v
}

func (p *parser) i32() int {
	if p.err != nil {
		return 0
	}
	v, err := p.r.Int32()
	if err != nil {
		p.fail(err)
	}
	return v
}

// count reads an id delta or element count, whose width depends on protocol.
func (p *parser) count(protocol int) int {
	if p.err != nil {
		return 0
	}
	var (
		v   int
		err error
	)
	if protocol >= 7 {
		v, err = p.r.BigSmart()
	} else {
		v, err = p.r.Uint16()
	}
	if err != nil {
		p.fail(err)
	}
	return v
}
