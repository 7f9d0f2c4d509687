package container

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"

	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/stream"
)

// EncodeOption configures Encode.
type EncodeOption func(*encodeConfig)

type encodeConfig struct {
	revision int
	keys     Keys
}

// EncodeWithRevision appends a revision trailer. Only the low 16 bits are stored.
func EncodeWithRevision(revision int) EncodeOption {
	return func(c *encodeConfig) {
		c.revision = revision
	}
}

// EncodeWithKeys encrypts the envelope body with keys.
func EncodeWithKeys(keys Keys) EncodeOption {
	return func(c *encodeConfig) {
		c.keys = keys
	}
}

// Encode wraps data in an envelope compressed with c. It is the inverse of
// Decoder.Decode and exists for fixtures and round-trip verification; the
// store itself is never written.
func Encode(data []byte, c cachetype.Compression, opts ...EncodeOption) ([]byte, error) {
	cfg := encodeConfig{revision: -1}
	for _, opt := range opts {
		opt(&cfg)
	}

	var body []byte
	switch c {
	case cachetype.CompressionNone:
		body = append([]byte(nil), data...)
	case cachetype.CompressionBzip2, cachetype.CompressionGzip:
		compressed, err := deflate(c, data)
		if err != nil {
			return nil, err
		}
		w := &stream.Writer{}
		w.Int32(len(data)).Raw(compressed)
		body = w.Bytes()
	default:
		return nil, fmt.Errorf("%w: %d", cachetype.ErrUnknownCompression, c)
	}

	stored := len(body)
	if c != cachetype.CompressionNone {
		stored -= 4
	}

	if !cfg.keys.IsZero() {
		var err error
		if body, err = cfg.keys.encrypt(body); err != nil {
			return nil, err
		}
	}

	w := &stream.Writer{}
	w.Uint8(int(c)).Int32(stored).Raw(body)
	if cfg.revision >= 0 {
		w.Uint16(cfg.revision)
	}
	return w.Bytes(), nil
}

func deflate(c cachetype.Compression, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var (
		zw  io.WriteCloser
		err error
	)
	switch c {
	case cachetype.CompressionBzip2:
		zw, err = bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: bzip2.BestSpeed})
	case cachetype.CompressionGzip:
		zw, err = gzip.NewWriterLevel(&buf, gzip.BestCompression)
	default:
		return nil, fmt.Errorf("%w: %d", cachetype.ErrUnknownCompression, c)
	}
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if c == cachetype.CompressionBzip2 {
		if !bytes.HasPrefix(out, bzip2Magic) {
			return nil, fmt.Errorf("%w: unexpected bzip2 header %q", cachetype.ErrDecompression, out[:min(4, len(out))])
		}
		out = out[len(bzip2Magic):]
	}
	return out, nil
}
