package testutil

import (
	"github.com/meigma/jagcache/internal/stream"
)

// RefTable describes a reference table to encode.
type RefTable struct {
	Protocol int
	Revision int
	Named    bool
	Sized    bool
	Archives []RefArchive
}

// RefArchive is one archive entry of a RefTable. Archives must be listed in
// ascending id order.
type RefArchive struct {
	ID               int
	NameHash         int32
	CRC              uint32
	Revision         int
	CompressedSize   int
	DecompressedSize int
	Files            []RefFile
}

// RefFile is one declared file of a RefArchive.
type RefFile struct {
	ID       int
	NameHash int32
}

// EncodeReferenceTable encodes t in the on-disk reference table layout.
func EncodeReferenceTable(t RefTable) []byte {
	w := &stream.Writer{}
	count := func(v int) {
		if t.Protocol >= 7 {
			w.BigSmart(v)
		} else {
			w.Uint16(v)
		}
	}

	w.Uint8(t.Protocol)
	if t.Protocol >= 6 {
		w.Int32(t.Revision)
	}
	flags := 0
	if t.Named {
		flags |= 0x1
	}
	if t.Sized {
		flags |= 0x4
	}
	w.Uint8(flags)

	count(len(t.Archives))
	last := 0
	for _, a := range t.Archives {
		count(a.ID - last)
		last = a.ID
	}
	if t.Named {
		for _, a := range t.Archives {
			w.Int32(int(a.NameHash))
		}
	}
	for _, a := range t.Archives {
		w.Int32(int(int32(a.CRC))) //nolint:gosec // stored signed
	}
	if t.Sized {
		for _, a := range t.Archives {
			w.Int32(a.CompressedSize).Int32(a.DecompressedSize)
		}
	}
	for _, a := range t.Archives {
		w.Int32(a.Revision)
	}
	for _, a := range t.Archives {
		count(len(a.Files))
	}
	for _, a := range t.Archives {
		last := 0
		for _, f := range a.Files {
			count(f.ID - last)
			last = f.ID
		}
	}
	if t.Named {
		for _, a := range t.Archives {
			for _, f := range a.Files {
				w.Int32(int(f.NameHash))
			}
		}
	}
	return w.Bytes()
}
