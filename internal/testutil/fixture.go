package testutil

import (
	"cmp"
	"hash/crc32"
	"slices"
	"testing"

	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/container"
	"github.com/meigma/jagcache/internal/group"
	"github.com/meigma/jagcache/internal/index"
	"github.com/meigma/jagcache/internal/storage"
)

// IndexSpec describes one index of a fixture store.
type IndexSpec struct {
	ID       int
	Protocol int // defaults to 6
	Revision int
	Named    bool
	Sized    bool

	// Compression wraps the reference table.
	Compression cachetype.Compression
	Archives    []ArchiveSpec
}

// ArchiveSpec describes one archive of a fixture index.
type ArchiveSpec struct {
	ID          int
	Name        string
	Revision    int
	Compression cachetype.Compression
	Keys        container.Keys
	Chunks      int
	Files       []FileSpec

	// Raw, when set, is stored verbatim in place of the encoded files.
	Raw []byte
	// CRC, when set, is declared instead of the stored container's checksum.
	CRC uint32
}

// FileSpec is one file of a fixture archive.
type FileSpec struct {
	ID   int
	Name string
	Data []byte
}

// BuildStore encodes every archive of specs into containers, lays them out in
// a fresh arena, and writes each index's reference table into the meta index.
// Archives and files may be listed in any order; reference tables store them
// by ascending id.
func BuildStore(tb testing.TB, specs ...IndexSpec) *SectorArena {
	tb.Helper()
	arena := NewSectorArena()
	for _, ix := range specs {
		table := RefTable{
			Protocol: ix.Protocol,
			Revision: ix.Revision,
			Named:    ix.Named,
			Sized:    ix.Sized,
		}
		if table.Protocol == 0 {
			table.Protocol = 6
		}

		for _, a := range sortedArchives(ix.Archives) {
			raw, payload := EncodeArchive(tb, a)
			arena.Put(tb, ix.ID, a.ID, raw)

			ref := RefArchive{
				ID:               a.ID,
				NameHash:         nameHash(a.Name),
				CRC:              a.CRC,
				Revision:         a.Revision,
				CompressedSize:   len(raw),
				DecompressedSize: len(payload),
			}
			if ref.CRC == 0 {
				ref.CRC = ContainerCRC(raw, a.Revision > 0 && a.Raw == nil)
			}
			for _, f := range a.Files {
				ref.Files = append(ref.Files, RefFile{ID: f.ID, NameHash: nameHash(f.Name)})
			}
			if len(ref.Files) == 0 {
				ref.Files = []RefFile{{}}
			}
			table.Archives = append(table.Archives, ref)
		}

		raw, err := container.Encode(EncodeReferenceTable(table), ix.Compression)
		if err != nil {
			tb.Fatalf("encode reference table %d: %v", ix.ID, err)
		}
		arena.Put(tb, storage.MetaIndex, ix.ID, raw)
	}
	return arena
}

func sortedArchives(archives []ArchiveSpec) []ArchiveSpec {
	out := slices.Clone(archives)
	for i := range out {
		out[i].Files = slices.SortedStableFunc(slices.Values(out[i].Files), func(a, b FileSpec) int {
			return cmp.Compare(a.ID, b.ID)
		})
	}
	slices.SortStableFunc(out, func(a, b ArchiveSpec) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// EncodeArchive returns the stored container of a and its decompressed payload.
func EncodeArchive(tb testing.TB, a ArchiveSpec) (raw, payload []byte) {
	tb.Helper()
	if a.Raw != nil {
		return a.Raw, nil
	}

	files := make([][]byte, len(a.Files))
	for i, f := range a.Files {
		files[i] = f.Data
	}
	if len(files) == 0 {
		files = [][]byte{nil}
	}
	payload = group.EncodeChunks(files, a.Chunks)

	var opts []container.EncodeOption
	if a.Revision > 0 {
		opts = append(opts, container.EncodeWithRevision(a.Revision&0xFFFF))
	}
	if !a.Keys.IsZero() {
		opts = append(opts, container.EncodeWithKeys(a.Keys))
	}
	raw, err := container.Encode(payload, a.Compression, opts...)
	if err != nil {
		tb.Fatalf("encode archive %d: %v", a.ID, err)
	}
	return raw, payload
}

// ContainerCRC returns the checksum declared for raw, which excludes the
// revision trailer when present.
func ContainerCRC(raw []byte, trailer bool) uint32 {
	if trailer && len(raw) >= 2 {
		raw = raw[:len(raw)-2]
	}
	return crc32.ChecksumIEEE(raw)
}

func nameHash(name string) int32 {
	if name == "" {
		return 0
	}
	return index.Hash(name)
}
