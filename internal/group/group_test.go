package group

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/jagcache/internal/cachetype"
)

func TestSplitTwoFiles(t *testing.T) {
	t.Parallel()

	// Sizes 3 and 4 in one chunk: deltas 3, 1.
	data := []byte("abcdefg")
	data = append(data, 0, 0, 0, 3, 0, 0, 0, 1, 1)

	files, err := Split(data, 2)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, []byte("abc"), files[0])
	assert.Equal(t, []byte("defg"), files[1])
}

func TestSplitSingleFileShortcut(t *testing.T) {
	t.Parallel()

	raw := []byte("the whole payload")
	tabled := append(append([]byte(nil), raw...), 0, 0, 0, byte(len(raw)), 1)

	short, err := Split(raw, 1)
	require.NoError(t, err)
	long, err := splitTable(tabled, 1)
	require.NoError(t, err)
	assert.Equal(t, short, long)
}

func TestSplitRoundTrip(t *testing.T) {
	t.Parallel()

	files := [][]byte{
		[]byte("first"),
		{},
		bytes.Repeat([]byte{0xAB}, 700),
		[]byte("x"),
	}
	for _, chunks := range []int{1, 2, 5} {
		data := EncodeChunks(files, chunks)
		got, err := Split(data, len(files))
		require.NoError(t, err, "chunks=%d", chunks)
		require.Len(t, got, len(files))

		total := 0
		for i := range files {
			assert.Equal(t, files[i], nonNil(got[i]), "chunks=%d file=%d", chunks, i)
			total += len(got[i])
		}
		assert.Equal(t, len(data)-1-chunks*len(files)*4, total)
	}
}

func TestSplitMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		data  []byte
		count int
	}{
		{"empty", nil, 2},
		{"table larger than buffer", []byte{1, 2, 3, 4}, 2},
		{"sizes overrun payload", []byte{'a', 'b', 0, 0, 0, 5, 0, 0, 0, 0, 1}, 2},
		{"negative size", []byte{'a', 0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 2, 1}, 2},
		{"no files", []byte("abc"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Split(tt.data, tt.count)
			require.ErrorIs(t, err, cachetype.ErrMalformedGroup)
		})
	}
}

func TestSplitToleratesUnderrun(t *testing.T) {
	t.Parallel()

	// Declared sizes cover 2 of 4 payload bytes.
	data := []byte{'a', 'b', 'c', 'd', 0, 0, 0, 1, 0, 0, 0, 0, 1}
	files, err := Split(data, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), files[0])
	assert.Equal(t, []byte("b"), files[1])
}

func TestSplitDoesNotAlias(t *testing.T) {
	t.Parallel()

	data := Encode([][]byte{[]byte("ab"), []byte("cd")})
	files, err := Split(data, 2)
	require.NoError(t, err)
	data[0] = 'z'
	assert.Equal(t, []byte("ab"), files[0])
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
