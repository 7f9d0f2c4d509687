package index_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/index"
	"github.com/meigma/jagcache/internal/testutil"
)

func sampleTable(protocol int) testutil.RefTable {
	return testutil.RefTable{
		Protocol: protocol,
		Revision: 1234,
		Named:    true,
		Archives: []testutil.RefArchive{
			{ID: 0, NameHash: index.Hash("title.jpg"), CRC: 0xDEADBEEF, Revision: 7, Files: []testutil.RefFile{{ID: 0}}},
			{ID: 3, NameHash: index.Hash("logo"), CRC: 42, Revision: 9, Files: []testutil.RefFile{
				{ID: 0, NameHash: 11}, {ID: 2, NameHash: 22}, {ID: 5, NameHash: 33},
			}},
			{ID: 40000, NameHash: index.Hash("far"), CRC: 1, Files: []testutil.RefFile{{ID: 1}}},
		},
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	for _, protocol := range []int{6, 7} {
		tbl, err := index.Parse(testutil.EncodeReferenceTable(sampleTable(protocol)))
		require.NoError(t, err, "protocol %d", protocol)

		assert.Equal(t, protocol, tbl.Protocol)
		assert.Equal(t, 1234, tbl.Revision)
		assert.True(t, tbl.Named)
		assert.False(t, tbl.Sized)
		assert.Equal(t, 3, tbl.Len())

		a, ok := tbl.Lookup(3)
		require.True(t, ok)
		assert.Equal(t, uint32(42), a.CRC)
		assert.Equal(t, 9, a.Revision)
		require.Len(t, a.Files, 3)
		assert.Equal(t, index.File{ID: 5, NameHash: 33}, a.Files[2])

		a, ok = tbl.Lookup(0)
		require.True(t, ok)
		assert.Equal(t, uint32(0xDEADBEEF), a.CRC)

		a, ok = tbl.Lookup(40000)
		require.True(t, ok)
		assert.Equal(t, 1, a.Files[0].ID)

		_, ok = tbl.Lookup(1)
		assert.False(t, ok)
	}
}

func TestParseProtocol5(t *testing.T) {
	t.Parallel()

	ref := sampleTable(5)
	ref.Archives = ref.Archives[:2]
	tbl, err := index.Parse(testutil.EncodeReferenceTable(ref))
	require.NoError(t, err)
	assert.Equal(t, index.NoRevision, tbl.Revision)
	assert.Equal(t, 2, tbl.Len())
}

func TestParseSized(t *testing.T) {
	t.Parallel()

	ref := sampleTable(6)
	ref.Sized = true
	ref.Archives[1].CompressedSize = 100
	ref.Archives[1].DecompressedSize = 250

	tbl, err := index.Parse(testutil.EncodeReferenceTable(ref))
	require.NoError(t, err)
	a, ok := tbl.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, 100, a.CompressedSize)
	assert.Equal(t, 250, a.DecompressedSize)
	assert.Equal(t, 9, a.Revision)
}

func TestLookupName(t *testing.T) {
	t.Parallel()

	tbl, err := index.Parse(testutil.EncodeReferenceTable(sampleTable(6)))
	require.NoError(t, err)

	a, ok := tbl.LookupName(index.Hash("LOGO"))
	require.True(t, ok)
	assert.Equal(t, 3, a.ID)

	_, ok = tbl.LookupName(index.Hash("missing"))
	assert.False(t, ok)
}

func TestLookupNameCollisionPrefersLowestID(t *testing.T) {
	t.Parallel()

	ref := testutil.RefTable{
		Protocol: 6,
		Named:    true,
		Archives: []testutil.RefArchive{
			{ID: 2, NameHash: 77, Files: []testutil.RefFile{{}}},
			{ID: 5, NameHash: 77, Files: []testutil.RefFile{{}}},
		},
	}
	tbl, err := index.Parse(testutil.EncodeReferenceTable(ref))
	require.NoError(t, err)

	a, ok := tbl.LookupName(77)
	require.True(t, ok)
	assert.Equal(t, 2, a.ID)
}

func TestArchivesIterator(t *testing.T) {
	t.Parallel()

	tbl, err := index.Parse(testutil.EncodeReferenceTable(sampleTable(6)))
	require.NoError(t, err)

	var ids []int
	for a := range tbl.Archives() {
		ids = append(ids, a.ID)
		if a.ID == 3 {
			break
		}
	}
	assert.Equal(t, []int{0, 3}, ids)
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	valid := testutil.EncodeReferenceTable(sampleTable(6))

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad protocol", []byte{4, 0, 0}},
		{"unknown flags", []byte{6, 0, 0, 0, 0, 0x2, 0, 0}},
		{"truncated", valid[:len(valid)-3]},
		{"absurd count", []byte{6, 0, 0, 0, 0, 0, 0xFF, 0xFF, 0}},
		{"duplicate id", testutil.EncodeReferenceTable(testutil.RefTable{
			Protocol: 6,
			Archives: []testutil.RefArchive{{ID: 1, Files: []testutil.RefFile{{}}}, {ID: 1, Files: []testutil.RefFile{{}}}},
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := index.Parse(tt.data)
			require.ErrorIs(t, err, cachetype.ErrMalformedIndex)

			var le *cachetype.LocationError
			require.ErrorAs(t, err, &le)
			assert.GreaterOrEqual(t, le.Offset, 0)
		})
	}
}

func TestHash(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int32(0), index.Hash(""))
	assert.Equal(t, int32('a'), index.Hash("a"))
	// 'a'*31 + 'b'
	assert.Equal(t, int32(97*31+98), index.Hash("ab"))
	assert.Equal(t, index.Hash("Title.JPG"), index.Hash("title.jpg"))
}
