package storage

import (
	"fmt"
	"io"

	"github.com/meigma/jagcache/internal/cachetype"
)

// sectorHeader is the decoded prefix of one sector.
type sectorHeader struct {
	archive int
	part    int
	next    int
	index   int
}

// headerLen returns the header width used by sectors of archive.
// Archive ids that do not fit in 16 bits use the extended header.
func headerLen(archive int) int {
	if archive > 0xFFFF {
		return extendedHeaderSize
	}
	return headerSize
}

func parseHeader(b []byte) sectorHeader {
	if len(b) == extendedHeaderSize {
		return sectorHeader{
			archive: int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3]),
			part:    int(b[4])<<8 | int(b[5]),
			next:    int(b[6])<<16 | int(b[7])<<8 | int(b[8]),
			index:   int(b[9]),
		}
	}
	return sectorHeader{
		archive: int(b[0])<<8 | int(b[1]),
		part:    int(b[2])<<8 | int(b[3]),
		next:    int(b[4])<<16 | int(b[5])<<8 | int(b[6]),
		index:   int(b[7]),
	}
}

// readChain walks the sector chain starting at entry.Sector and concatenates
// the payload regions until entry.Length bytes are collected.
//
// Sector identity is a plain integer into the data file, so the walk is a loop
// over sector numbers. Every visited header must name the requested index and
// archive and carry the next part number in sequence; a cross-linked or
// looping chain fails one of those checks.
func readChain(data ByteSource, index int, entry Entry) ([]byte, error) {
	// The final sector of the file may be short, so a sector equal to the
	// floor of the sector count is still addressable; short reads catch the rest.
	sectors := int(data.Size() / SectorSize)
	hlen := headerLen(entry.Archive)
	chunk := SectorSize - hlen

	out := make([]byte, entry.Length)
	buf := make([]byte, SectorSize)
	sector := entry.Sector

	corrupt := func(sector int, format string, args ...any) error {
		return cachetype.Locate(
			fmt.Errorf("%w: sector %d: %s", cachetype.ErrCorruptStore, sector, fmt.Sprintf(format, args...)),
			index, entry.Archive, -1, sector*SectorSize)
	}

	for part, read := 0, 0; read < entry.Length; part++ {
		if sector <= 0 || sector > sectors {
			return nil, corrupt(sector, "pointer outside data file of %d sectors after %d of %d bytes", sectors, read, entry.Length)
		}

		n := min(entry.Length-read, chunk)
		got, err := data.ReadAt(buf[:hlen+n], int64(sector)*SectorSize)
		if got != hlen+n {
			if err == nil || err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, corrupt(sector, "short read: %v", err)
		}

		h := parseHeader(buf[:hlen])
		if h.archive != entry.Archive || h.index != index {
			return nil, corrupt(sector, "belongs to index %d archive %d", h.index, h.archive)
		}
		if h.part != part {
			return nil, corrupt(sector, "part %d out of sequence, want %d", h.part, part)
		}

		copy(out[read:], buf[hlen:hlen+n])
		read += n
		sector = h.next
	}
	return out, nil
}
