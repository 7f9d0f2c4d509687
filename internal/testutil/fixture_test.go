package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/jagcache/internal/container"
	"github.com/meigma/jagcache/internal/group"
	"github.com/meigma/jagcache/internal/index"
	"github.com/meigma/jagcache/internal/testutil"
)

func TestBuildStoreOrdersByID(t *testing.T) {
	t.Parallel()

	disk := testutil.BuildStore(t, testutil.IndexSpec{
		ID: 2,
		Archives: []testutil.ArchiveSpec{
			{ID: 14, Files: []testutil.FileSpec{{ID: 0, Data: []byte("varbit")}}},
			{ID: 8, Files: []testutil.FileSpec{
				{ID: 3, Data: []byte("three")},
				{ID: 1, Data: []byte("one")},
			}},
		},
	}).Disk()

	raw, err := disk.ReadReferenceTable(2)
	require.NoError(t, err)
	c, err := container.Decode(raw)
	require.NoError(t, err)
	tbl, err := index.Parse(c.Data)
	require.NoError(t, err)

	require.Equal(t, 2, tbl.Len())
	var ids []int
	for a := range tbl.Archives() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []int{8, 14}, ids)

	a, ok := tbl.Lookup(8)
	require.True(t, ok)
	require.Len(t, a.Files, 2)
	assert.Equal(t, 1, a.Files[0].ID)
	assert.Equal(t, 3, a.Files[1].ID)

	raw, err = disk.Read(2, 8)
	require.NoError(t, err)
	c, err = container.Decode(raw)
	require.NoError(t, err)
	files, err := group.Split(c.Data, len(a.Files))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("one"), []byte("three")}, files)
}
