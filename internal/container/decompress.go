package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"

	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/sizing"
)

// bzip2Magic is stripped from stored bzip2 payloads and must be restored
// before decoding. The '1' selects 100k blocks.
var bzip2Magic = []byte("BZh1")

// gzipPool manages reusable gzip readers to reduce allocation overhead.
type gzipPool struct {
	pool sync.Pool
}

// get returns a reader positioned on r and a release function.
func (p *gzipPool) get(r io.Reader) (*gzip.Reader, func(), error) {
	if v, ok := p.pool.Get().(*gzip.Reader); ok {
		if err := v.Reset(r); err != nil {
			return nil, nil, err
		}
		return v, func() { p.pool.Put(v) }, nil
	}
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	return zr, func() { p.pool.Put(zr) }, nil
}

// inflate decompresses payload with the given codec, requiring exactly want
// bytes of output.
func (d *Decoder) inflate(c cachetype.Compression, payload []byte, want int) ([]byte, error) {
	var (
		r       io.Reader
		release = func() {}
	)
	switch c {
	case cachetype.CompressionBzip2:
		br, err := bzip2.NewReader(io.MultiReader(bytes.NewReader(bzip2Magic), bytes.NewReader(payload)), nil)
		if err != nil {
			return nil, fmt.Errorf("%w: bzip2: %v", cachetype.ErrDecompression, err)
		}
		r = br
		release = func() { _ = br.Close() } //nolint:errcheck // reader holds no external resources
	case cachetype.CompressionGzip:
		zr, rel, err := d.gzip.get(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", cachetype.ErrDecompression, err)
		}
		r = zr
		release = rel
	default:
		return nil, fmt.Errorf("%w: %d", cachetype.ErrUnknownCompression, c)
	}
	defer release()

	out, err := sizing.ReadAllWithLimit(r, uint64(want), cachetype.ErrLengthMismatch) //nolint:gosec // want is non-negative
	if err != nil {
		if errors.Is(err, cachetype.ErrLengthMismatch) {
			return nil, fmt.Errorf("%w: %s payload inflates past %d bytes", cachetype.ErrLengthMismatch, c, want)
		}
		return nil, fmt.Errorf("%w: %s: %v", cachetype.ErrDecompression, c, err)
	}
	if len(out) != want {
		return nil, fmt.Errorf("%w: %s payload inflated to %d bytes, want %d", cachetype.ErrLengthMismatch, c, len(out), want)
	}
	return out, nil
}
