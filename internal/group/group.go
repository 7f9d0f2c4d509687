// Package group splits a decompressed archive into its files.
//
// An archive declaring more than one file is a group: the file payloads are
// concatenated chunk by chunk, followed by a size table and a trailing chunk
// count byte:
//
//	chunk 0: file 0 bytes, file 1 bytes, ...
//	chunk 1: file 0 bytes, file 1 bytes, ...
//	...
//	table:   for each chunk, for each file, i32 size delta
//	u8       chunk count
//
// Within a chunk the sizes are delta coded: each file's chunk size is the
// running sum of deltas so far in that chunk. Because the table sits at the
// end, it is located by reading backwards from the last byte, and file offsets
// are rebuilt by prefix-summing the decoded sizes.
package group

import (
	"fmt"

	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/sizing"
)

// Split returns the contents of count files packed in data, in declaration
// order. The file count comes from the index metadata, not from data.
//
// A single-file archive is not a group: its whole payload is the file.
// The returned slices do not alias data.
func Split(data []byte, count int) ([][]byte, error) {
	if count <= 0 {
		return nil, malformed(-1, fmt.Errorf("archive declares %d files", count))
	}
	if count == 1 {
		return [][]byte{append([]byte(nil), data...)}, nil
	}
	return splitTable(data, count)
}

func splitTable(data []byte, count int) ([][]byte, error) {
	if len(data) == 0 {
		return nil, malformed(0, fmt.Errorf("empty group declares %d files", count))
	}

	chunks := int(data[len(data)-1])
	tableStart := len(data) - 1 - chunks*count*4
	if tableStart < 0 {
		return nil, malformed(len(data)-1, fmt.Errorf("size table of %d chunks x %d files overruns %d bytes", chunks, count, len(data)))
	}

	// sizes[chunk][file]
	sizes := make([][]int, chunks)
	totals := make([]int, count)
	payload := 0
	off := tableStart
	for c := range chunks {
		sizes[c] = make([]int, count)
		running := 0
		for f := range count {
			delta := int(int32(uint32(data[off])<<24 | uint32(data[off+1])<<16 | uint32(data[off+2])<<8 | uint32(data[off+3]))) //nolint:gosec // signed delta
			running += delta
			if running < 0 {
				return nil, malformed(off, fmt.Errorf("file %d chunk %d has negative size %d", f, c, running))
			}
			sizes[c][f] = running
			totals[f] += running
			var ok bool
			if payload, ok = sizing.AddInt(payload, running); !ok || payload > tableStart {
				return nil, malformed(off, fmt.Errorf("declared sizes overrun %d payload bytes", tableStart))
			}
			off += 4
		}
	}

	files := make([][]byte, count)
	for f := range files {
		files[f] = make([]byte, 0, totals[f])
	}
	pos := 0
	for c := range chunks {
		for f := range count {
			n := sizes[c][f]
			files[f] = append(files[f], data[pos:pos+n]...)
			pos += n
		}
	}
	return files, nil
}

// Encode packs files into a single-chunk group. A single file is returned as
// is. It is the inverse of Split and exists for fixtures and verification.
func Encode(files [][]byte) []byte {
	return EncodeChunks(files, 1)
}

// EncodeChunks packs files into a group of the given number of chunks, each
// file's bytes spread as evenly as possible across chunks.
func EncodeChunks(files [][]byte, chunks int) []byte {
	if len(files) == 1 {
		return append([]byte(nil), files[0]...)
	}
	if chunks < 1 {
		chunks = 1
	}

	pieces := make([][][]byte, chunks)
	for c := range pieces {
		pieces[c] = make([][]byte, len(files))
	}
	for f, file := range files {
		per := len(file) / chunks
		start := 0
		for c := range chunks {
			end := start + per
			if c == chunks-1 {
				end = len(file)
			}
			pieces[c][f] = file[start:end]
			start = end
		}
	}

	var out []byte
	for c := range chunks {
		for f := range files {
			out = append(out, pieces[c][f]...)
		}
	}
	for c := range chunks {
		prev := 0
		for f := range files {
			n := len(pieces[c][f])
			d := uint32(int32(n - prev)) //nolint:gosec // signed delta
			out = append(out, byte(d>>24), byte(d>>16), byte(d>>8), byte(d))
			prev = n
		}
	}
	return append(out, byte(chunks))
}

func malformed(offset int, err error) error {
	return cachetype.Locate(fmt.Errorf("%w: %w", cachetype.ErrMalformedGroup, err), -1, -1, -1, offset)
}
