package stream

import "bytes"

// Writer builds big-endian records. It is the inverse of Reader and is used
// to encode containers and test fixtures.
type Writer struct {
	buf bytes.Buffer
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// Bytes returns the encoded bytes.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Len returns the number of bytes written.
func (w *Writer) Len() int { return w.buf.Len() }

// Uint8 writes the low byte of v.
func (w *Writer) Uint8(v int) *Writer {
	w.buf.WriteByte(byte(v))
	return w
}

// Uint16 writes the low 16 bits of v.
func (w *Writer) Uint16(v int) *Writer {
	w.buf.Write([]byte{byte(v >> 8), byte(v)})
	return w
}

// Uint24 writes the low 24 bits of v.
func (w *Writer) Uint24(v int) *Writer {
	w.buf.Write([]byte{byte(v >> 16), byte(v >> 8), byte(v)})
	return w
}

// Int32 writes the low 32 bits of v.
func (w *Writer) Int32(v int) *Writer {
	w.buf.Write([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
	return w
}

// Raw appends b verbatim.
func (w *Writer) Raw(b []byte) *Writer {
	w.buf.Write(b)
	return w
}

// BigSmart writes v as a u16 when it fits in 15 bits, else as a flagged u31.
func (w *Writer) BigSmart(v int) *Writer {
	if v >= 0 && v < 0x8000 {
		return w.Uint16(v)
	}
	return w.Int32(v | -0x80000000)
}

// UnsignedSmart writes v in [0, 32767].
func (w *Writer) UnsignedSmart(v int) *Writer {
	if v < 128 {
		return w.Uint8(v)
	}
	return w.Uint16(v + 0x8000)
}

// Smart writes v in [-16384, 16383].
func (w *Writer) Smart(v int) *Writer {
	if v >= -64 && v < 64 {
		return w.Uint8(v + 64)
	}
	return w.Uint16(v + 0xC000)
}

// CString writes s in CP1252 followed by a zero terminator.
func (w *Writer) CString(s string) *Writer {
	for _, r := range s {
		w.buf.WriteByte(encodeCP1252(r))
	}
	w.buf.WriteByte(0)
	return w
}
