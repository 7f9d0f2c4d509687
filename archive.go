package jagcache

import (
	"fmt"
	"log/slog"

	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/container"
	"github.com/meigma/jagcache/internal/group"
	reftable "github.com/meigma/jagcache/internal/index"
)

// codec holds what an Archive needs to decode its container.
type codec struct {
	decoder *container.Decoder
	keys    KeyFunc
	logger  *slog.Logger
}

// Archive is the metadata of one archive together with the means to decode it.
// It holds no bytes; contents come from Store.ReadArchive or Store.Contents.
type Archive struct {
	index int
	meta  *reftable.Archive
	codec *codec
}

// Index returns the id of the owning index.
func (a *Archive) Index() int { return a.index }

// ID returns the archive id.
func (a *Archive) ID() int { return a.meta.ID }

// NameHash returns the archive's name hash, 0 in unnamed indices.
func (a *Archive) NameHash() int32 { return a.meta.NameHash }

// CRC returns the checksum the reference table declares.
func (a *Archive) CRC() uint32 { return a.meta.CRC }

// Revision returns the revision the reference table declares.
func (a *Archive) Revision() int { return a.meta.Revision }

// CompressedSize and DecompressedSize return the sizes declared by sized
// reference tables, 0 otherwise.
func (a *Archive) CompressedSize() int { return a.meta.CompressedSize }

func (a *Archive) DecompressedSize() int { return a.meta.DecompressedSize }

// FileCount returns the number of declared files.
func (a *Archive) FileCount() int { return len(a.meta.Files) }

// FileIDs returns the declared file ids in order.
func (a *Archive) FileIDs() []int {
	ids := make([]int, len(a.meta.Files))
	for i, f := range a.meta.Files {
		ids[i] = f.ID
	}
	return ids
}

// Decompress validates the container raw against this archive's metadata and
// returns the decompressed contents.
//
// A CRC mismatch is an error. A revision trailer that disagrees with the
// reference table is only logged, as stores in the wild routinely carry
// stale trailers.
func (a *Archive) Decompress(raw []byte) ([]byte, error) {
	var keys Keys
	if a.codec.keys != nil {
		keys = a.codec.keys(a.index, a.meta.ID)
	}

	c, err := a.codec.decoder.Decode(raw, keys)
	if err != nil {
		return nil, cachetype.Relocate(err, a.index, a.meta.ID, -1)
	}
	if c.CRC != a.meta.CRC {
		return nil, cachetype.Locate(
			fmt.Errorf("%w: container %08x, reference table %08x", ErrChecksumMismatch, c.CRC, a.meta.CRC),
			a.index, a.meta.ID, -1, -1)
	}
	if c.Revision >= 0 && c.Revision != a.meta.Revision&0xFFFF {
		a.codec.logger.Warn("archive revision mismatch",
			"index", a.index,
			"archive", a.meta.ID,
			"container", c.Revision,
			"reference", a.meta.Revision)
	}
	return c.Data, nil
}

// Files decompresses raw and splits it into the declared files.
func (a *Archive) Files(raw []byte) (*ArchiveFiles, error) {
	data, err := a.Decompress(raw)
	if err != nil {
		return nil, err
	}
	return a.Split(data)
}

// Split splits already decompressed contents into the declared files.
// The returned files do not alias contents.
func (a *Archive) Split(contents []byte) (*ArchiveFiles, error) {
	parts, err := group.Split(contents, len(a.meta.Files))
	if err != nil {
		return nil, cachetype.Relocate(err, a.index, a.meta.ID, -1)
	}
	files := make([]*FSFile, len(parts))
	for i, p := range parts {
		files[i] = &FSFile{
			ID:       a.meta.Files[i].ID,
			NameHash: a.meta.Files[i].NameHash,
			Contents: p,
		}
	}
	return &ArchiveFiles{index: a.index, archive: a.meta.ID, files: files}, nil
}
