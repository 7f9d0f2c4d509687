// Package stream provides big-endian cursors over cache records.
//
// Reader never panics on short input: every accessor returns an error
// wrapping cachetype.ErrUnexpectedEOF when the buffer runs out, so callers can
// attach the failing offset to a LocationError.
package stream

import (
	"fmt"
	"strings"

	"github.com/meigma/jagcache/internal/cachetype"
)

// Reader is a forward cursor over an immutable byte slice.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader positioned at the start of b.
// The slice is retained; callers must not modify it while reading.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Offset returns the current read position.
func (r *Reader) Offset() int { return r.off }

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int { return len(r.buf) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// Seek moves the cursor to an absolute offset within the buffer.
func (r *Reader) Seek(off int) error {
	if off < 0 || off > len(r.buf) {
		return fmt.Errorf("%w: seek to %d of %d", cachetype.ErrUnexpectedEOF, off, len(r.buf))
	}
	r.off = off
	return nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", cachetype.ErrUnexpectedEOF, n, r.Remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Peek returns the next byte without consuming it.
func (r *Reader) Peek() (byte, error) {
	if r.Remaining() < 1 {
		return 0, fmt.Errorf("%w: need 1 byte, have 0", cachetype.ErrUnexpectedEOF)
	}
	return r.buf[r.off], nil
}

// Bytes consumes n bytes. The result aliases the underlying buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.take(n)
}

// Uint8 reads an unsigned byte.
func (r *Reader) Uint8() (int, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return int(b[0]), nil
}

// Int8 reads a signed byte.
func (r *Reader) Int8() (int, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return int(int8(b[0])), nil
}

// Uint16 reads an unsigned 16-bit value.
func (r *Reader) Uint16() (int, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return int(b[0])<<8 | int(b[1]), nil
}

// Int16 reads a signed 16-bit value.
func (r *Reader) Int16() (int, error) {
	v, err := r.Uint16()
	if err != nil {
		return 0, err
	}
	return int(int16(v)), nil //nolint:gosec // intentional sign reinterpretation
}

// Uint24 reads an unsigned 24-bit value.
func (r *Reader) Uint24() (int, error) {
	b, err := r.take(3)
	if err != nil {
		return 0, err
	}
	return int(b[0])<<16 | int(b[1])<<8 | int(b[2]), nil
}

// Int32 reads a signed 32-bit value.
func (r *Reader) Int32() (int, error) {
	v, err := r.Uint32()
	if err != nil {
		return 0, err
	}
	return int(int32(v)), nil //nolint:gosec // intentional sign reinterpretation
}

// Uint32 reads an unsigned 32-bit value.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// BigSmart reads a u16, or a u31 when the high bit of the first byte is set.
func (r *Reader) BigSmart() (int, error) {
	p, err := r.Peek()
	if err != nil {
		return 0, err
	}
	if p&0x80 == 0 {
		return r.Uint16()
	}
	v, err := r.Uint32()
	if err != nil {
		return 0, err
	}
	return int(v & 0x7FFFFFFF), nil
}

// BigSmart2 is BigSmart with the u16 value 32767 mapped to -1.
func (r *Reader) BigSmart2() (int, error) {
	p, err := r.Peek()
	if err != nil {
		return 0, err
	}
	if p&0x80 != 0 {
		v, err := r.Uint32()
		if err != nil {
			return 0, err
		}
		return int(v & 0x7FFFFFFF), nil
	}
	v, err := r.Uint16()
	if err != nil {
		return 0, err
	}
	if v == 32767 {
		return -1, nil
	}
	return v, nil
}

// UnsignedSmart reads a value in [0, 32767] stored in one or two bytes.
func (r *Reader) UnsignedSmart() (int, error) {
	p, err := r.Peek()
	if err != nil {
		return 0, err
	}
	if p < 128 {
		return r.Uint8()
	}
	v, err := r.Uint16()
	if err != nil {
		return 0, err
	}
	return v - 0x8000, nil
}

// Smart reads a value in [-16384, 16383] stored in one or two bytes.
func (r *Reader) Smart() (int, error) {
	p, err := r.Peek()
	if err != nil {
		return 0, err
	}
	if p < 128 {
		v, err := r.Uint8()
		return v - 64, err
	}
	v, err := r.Uint16()
	if err != nil {
		return 0, err
	}
	return v - 0xC000, nil
}

// CString reads a zero-terminated CP1252 string.
func (r *Reader) CString() (string, error) {
	end := -1
	for i := r.off; i < len(r.buf); i++ {
		if r.buf[i] == 0 {
			end = i
			break
		}
	}
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string", cachetype.ErrUnexpectedEOF)
	}
	raw := r.buf[r.off:end]
	r.off = end + 1

	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		b.WriteRune(decodeCP1252(c))
	}
	return b.String(), nil
}

// CString2 reads a string prefixed by a mandatory zero byte.
func (r *Reader) CString2() (string, error) {
	v, err := r.Uint8()
	if err != nil {
		return "", err
	}
	if v != 0 {
		return "", fmt.Errorf("%w: string2 prefix %d", cachetype.ErrMalformedRecord, v)
	}
	return r.CString()
}
