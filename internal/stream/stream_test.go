package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/jagcache/internal/cachetype"
)

func TestReaderFixedWidth(t *testing.T) {
	t.Parallel()

	w := &Writer{}
	w.Uint8(0xFE).Uint16(0xBEEF).Uint24(0x123456).Int32(-2).Uint16(0xFFFE)

	r := NewReader(w.Bytes())

	v, err := r.Uint8()
	require.NoError(t, err)
	assert.Equal(t, 0xFE, v)

	v, err = r.Uint16()
	require.NoError(t, err)
	assert.Equal(t, 0xBEEF, v)

	v, err = r.Uint24()
	require.NoError(t, err)
	assert.Equal(t, 0x123456, v)

	v, err = r.Int32()
	require.NoError(t, err)
	assert.Equal(t, -2, v)

	v, err = r.Int16()
	require.NoError(t, err)
	assert.Equal(t, -2, v)

	assert.Equal(t, 0, r.Remaining())
}

func TestReaderShortInput(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{0x01})
	_, err := r.Uint16()
	require.ErrorIs(t, err, cachetype.ErrUnexpectedEOF)
	assert.Equal(t, 0, r.Offset(), "failed read must not advance")

	_, err = NewReader(nil).Uint8()
	require.ErrorIs(t, err, cachetype.ErrUnexpectedEOF)
}

func TestSmarts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		write func(*Writer, int)
		read  func(*Reader) (int, error)
		vals  []int
	}{
		{"big smart", func(w *Writer, v int) { w.BigSmart(v) }, (*Reader).BigSmart, []int{0, 1, 32767, 32768, 1 << 20}},
		{"unsigned smart", func(w *Writer, v int) { w.UnsignedSmart(v) }, (*Reader).UnsignedSmart, []int{0, 127, 128, 32767}},
		{"smart", func(w *Writer, v int) { w.Smart(v) }, (*Reader).Smart, []int{-16384, -65, -64, 0, 63, 64, 16383}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := &Writer{}
			for _, v := range tt.vals {
				tt.write(w, v)
			}
			r := NewReader(w.Bytes())
			for _, want := range tt.vals {
				got, err := tt.read(r)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
			assert.Equal(t, 0, r.Remaining())
		})
	}
}

func TestBigSmart2MapsSentinel(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{0x7F, 0xFF, 0x00, 0x05})
	v, err := r.BigSmart2()
	require.NoError(t, err)
	assert.Equal(t, -1, v)

	v, err = r.BigSmart2()
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestCString(t *testing.T) {
	t.Parallel()

	w := &Writer{}
	w.CString("Coins £5 €").CString("")
	r := NewReader(w.Bytes())

	s, err := r.CString()
	require.NoError(t, err)
	assert.Equal(t, "Coins £5 €", s)

	s, err = r.CString()
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = NewReader([]byte("abc")).CString()
	require.ErrorIs(t, err, cachetype.ErrUnexpectedEOF)
}

func TestCStringUnassignedBytes(t *testing.T) {
	t.Parallel()

	s, err := NewReader([]byte{'a', 0x81, 0x80, 0}).CString()
	require.NoError(t, err)
	assert.Equal(t, "a?€", s)
}

func TestCString2(t *testing.T) {
	t.Parallel()

	s, err := NewReader([]byte{0, 'h', 'i', 0}).CString2()
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	_, err = NewReader([]byte{1, 'h', 0}).CString2()
	require.ErrorIs(t, err, cachetype.ErrMalformedRecord)
}

func TestSeek(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{1, 2, 3})
	require.NoError(t, r.Seek(2))
	v, err := r.Uint8()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	require.ErrorIs(t, r.Seek(4), cachetype.ErrUnexpectedEOF)
}
