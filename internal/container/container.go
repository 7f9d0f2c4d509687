// Package container decodes the compression envelope that wraps every archive
// and reference table in the store.
//
// Layout (big endian):
//
//	u8   compression (0 none, 1 bzip2, 2 gzip)
//	u32  stored payload length
//	u32  uncompressed length (compressed payloads only)
//	...  payload
//	u16  revision (optional trailer)
//
// When keys are supplied, everything after the first five bytes up to the end
// of the payload is XTEA encrypted in 8-byte blocks.
package container

import (
	"fmt"
	"hash/crc32"

	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/sizing"
)

const (
	headerSize = 5

	// DefaultMaxSize is the default limit on a decoded payload (64MiB).
	DefaultMaxSize = 64 << 20
)

// Container is a decoded envelope.
type Container struct {
	Compression cachetype.Compression
	Data        []byte

	// Revision is the trailing revision, or -1 when the envelope has none.
	Revision int

	// CRC is the IEEE CRC32 of the envelope excluding the revision trailer.
	CRC uint32
}

// Decoder decodes containers. A Decoder is safe for concurrent use.
type Decoder struct {
	maxSize uint64
	gzip    gzipPool
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxSize limits the declared uncompressed size of a payload.
// Set limit to 0 to disable the limit.
func WithMaxSize(limit uint64) Option {
	return func(d *Decoder) {
		d.maxSize = limit
	}
}

// NewDecoder creates a Decoder.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDecoder = NewDecoder()

// Decode decodes b with the default decoder and no keys.
func Decode(b []byte) (*Container, error) {
	return defaultDecoder.Decode(b, Keys{})
}

// Decode validates the envelope in b, decrypts it with keys when they are
// non-zero, and decompresses the payload. Errors carry the byte offset of the
// offending field.
func (d *Decoder) Decode(b []byte, keys Keys) (*Container, error) {
	if len(b) < headerSize {
		return nil, locate(fmt.Errorf("%w: envelope is %d bytes", cachetype.ErrLengthMismatch, len(b)), 0)
	}

	c := cachetype.Compression(b[0])
	if !c.Valid() {
		return nil, locate(fmt.Errorf("%w: tag %d", cachetype.ErrUnknownCompression, b[0]), 0)
	}

	stored := uint64(b[1])<<24 | uint64(b[2])<<16 | uint64(b[3])<<8 | uint64(b[4])
	if err := sizing.CheckLimit(stored, d.maxSize, cachetype.ErrSizeOverflow); err != nil {
		return nil, locate(fmt.Errorf("%w: stored length %d", err, stored), 1)
	}
	length, err := sizing.ToInt(stored, cachetype.ErrSizeOverflow)
	if err != nil {
		return nil, locate(err, 1)
	}

	end := headerSize + length
	if c != cachetype.CompressionNone {
		end += 4
	}
	if len(b) < end {
		return nil, locate(fmt.Errorf("%w: need %d bytes, have %d", cachetype.ErrLengthMismatch, end, len(b)), 1)
	}

	out := &Container{
		Compression: c,
		Revision:    -1,
		CRC:         crc32.ChecksumIEEE(b[:end]),
	}
	if len(b)-end >= 2 {
		out.Revision = int(b[end])<<8 | int(b[end+1])
	}

	body := b[headerSize:end]
	if !keys.IsZero() {
		if body, err = keys.decrypt(body); err != nil {
			return nil, locate(err, headerSize)
		}
	}

	if c == cachetype.CompressionNone {
		out.Data = make([]byte, len(body))
		copy(out.Data, body)
		return out, nil
	}

	declared := uint64(body[0])<<24 | uint64(body[1])<<16 | uint64(body[2])<<8 | uint64(body[3])
	if err := sizing.CheckLimit(declared, d.maxSize, cachetype.ErrSizeOverflow); err != nil {
		return nil, locate(fmt.Errorf("%w: uncompressed length %d", err, declared), headerSize)
	}
	want, err := sizing.ToInt(declared, cachetype.ErrSizeOverflow)
	if err != nil {
		return nil, locate(err, headerSize)
	}

	data, err := d.inflate(c, body[4:], want)
	if err != nil {
		return nil, locate(err, headerSize+4)
	}
	out.Data = data
	return out, nil
}

func locate(err error, offset int) error {
	return cachetype.Locate(err, -1, -1, -1, offset)
}
