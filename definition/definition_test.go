package definition

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/stream"
)

func record(build func(w *stream.Writer)) []byte {
	w := &stream.Writer{}
	build(w)
	w.Uint8(0)
	return w.Bytes()
}

func TestLoadVarbit(t *testing.T) {
	t.Parallel()

	b := record(func(w *stream.Writer) { w.Uint8(1).Uint16(1234).Uint8(3).Uint8(9) })
	v, err := LoadVarbit(42, b)
	require.NoError(t, err)
	assert.Equal(t, &Varbit{ID: 42, Index: 1234, LeastSignificantBit: 3, MostSignificantBit: 9}, v)
}

func TestDecodeStopsAtTerminator(t *testing.T) {
	t.Parallel()

	// Garbage after the terminator, including an unknown opcode, is ignored.
	b := append(record(func(w *stream.Writer) { w.Uint8(1).Uint16(1).Uint8(0).Uint8(7) }), 99, 1, 2)
	v, err := LoadVarbit(0, b)
	require.NoError(t, err)
	assert.Equal(t, 7, v.MostSignificantBit)

	v, err = LoadVarbit(1, []byte{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, &Varbit{ID: 1}, v)
}

func TestDecodeUnknownOpcode(t *testing.T) {
	t.Parallel()

	b := record(func(w *stream.Writer) { w.Uint8(1).Uint16(1).Uint8(0).Uint8(7).Uint8(2) })
	_, err := LoadVarbit(17, b)
	require.ErrorIs(t, err, ErrUnknownOpcode)

	var oe *OpcodeError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, 2, oe.Opcode)
	assert.Equal(t, 5, oe.Offset)

	var le *cachetype.LocationError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 17, le.File)
	assert.Equal(t, 5, le.Offset)
}

func TestDecodeTruncated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"field cut short", []byte{1, 0, 5, 2}},
		{"missing terminator", []byte{1, 0, 5, 2, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadVarbit(3, tt.data)
			require.ErrorIs(t, err, cachetype.ErrUnexpectedEOF)
		})
	}
}

func TestLoadEnum(t *testing.T) {
	t.Parallel()

	t.Run("string values", func(t *testing.T) {
		t.Parallel()
		b := record(func(w *stream.Writer) {
			w.Uint8(1).Uint8('i')
			w.Uint8(2).Uint8('s')
			w.Uint8(3).CString("none")
			w.Uint8(5).Uint16(2).Int32(10).CString("ten").Int32(-1).CString("minus one")
		})
		e, err := LoadEnum(8, b)
		require.NoError(t, err)
		assert.Equal(t, VarTypeInteger, e.KeyType)
		assert.Equal(t, VarTypeString, e.ValType)
		assert.Equal(t, "none", e.DefaultString)
		assert.Equal(t, 2, e.Size)
		assert.Equal(t, []int{10, -1}, e.Keys)
		assert.Equal(t, []string{"ten", "minus one"}, e.StringVals)
		assert.Nil(t, e.IntVals)
	})

	t.Run("int values", func(t *testing.T) {
		t.Parallel()
		b := record(func(w *stream.Writer) {
			w.Uint8(1).Uint8('o')
			w.Uint8(2).Uint8(0xA3)
			w.Uint8(4).Int32(-5)
			w.Uint8(6).Uint16(1).Int32(4151).Int32(99)
		})
		e, err := LoadEnum(9, b)
		require.NoError(t, err)
		assert.Equal(t, VarTypeObj, e.KeyType)
		assert.Equal(t, VarTypeMapSceneIcon, e.ValType)
		assert.Equal(t, "null", e.DefaultString)
		assert.Equal(t, -5, e.DefaultInt)
		assert.Equal(t, []int{4151}, e.Keys)
		assert.Equal(t, []int{99}, e.IntVals)
	})

	t.Run("placeholder", func(t *testing.T) {
		t.Parallel()
		assert.True(t, IsPlaceholder([]byte{0}))
		assert.False(t, IsPlaceholder([]byte{0, 0}))
		assert.False(t, IsPlaceholder(record(func(w *stream.Writer) { w.Uint8(4).Int32(1) })))
	})
}

func TestScriptVarTypeJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(struct {
		A ScriptVarType `json:"a"`
		B ScriptVarType `json:"b"`
	}{VarTypeHitmark, VarTypeForKey('?')})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"HITMARK","b":null}`, string(b))

	assert.Equal(t, '×', VarTypeHitmark.Key())
	assert.Equal(t, "coordgrid", VarTypeForKey('c').FullName())
	assert.Equal(t, "unknown", VarTypeUnknown.String())
}

func TestLoadStruct(t *testing.T) {
	t.Parallel()

	b := record(func(w *stream.Writer) {
		w.Uint8(249).Uint8(3)
		w.Uint8(0).Uint24(451).Int32(-7)
		w.Uint8(1).Uint24(610).CString("Dragon £")
		w.Uint8(0).Uint24(0xFFFFFF).Int32(1 << 30)
	})
	s, err := LoadStruct(12, b)
	require.NoError(t, err)
	assert.Equal(t, 12, s.ID)
	assert.Equal(t, map[int]any{451: -7, 610: "Dragon £", 0xFFFFFF: 1 << 30}, s.Params)

	s, err = LoadStruct(13, []byte{0})
	require.NoError(t, err)
	assert.Nil(t, s.Params)
}

func TestLoadHitSplatDefaults(t *testing.T) {
	t.Parallel()

	h, err := LoadHitSplat([]byte{0})
	require.NoError(t, err)
	assert.Equal(t, newHitSplat(), h)
	assert.Equal(t, 70, h.DisplayCycles)
	assert.Equal(t, 16777215, h.TextColor)
}

func TestLoadHitSplat(t *testing.T) {
	t.Parallel()

	b := record(func(w *stream.Writer) {
		w.Uint8(1).Uint16(32767) // -1 sentinel
		w.Uint8(2).Uint24(0xFF0000)
		w.Uint8(3).Uint16(1200)
		w.Uint8(4).Int32(70000 | -0x80000000)
		w.Uint8(5).Uint16(5)
		w.Uint8(6).Uint16(6)
		w.Uint8(7).Uint16(0xFFFE) // -2
		w.Uint8(8).Uint8(0).CString("%1")
		w.Uint8(9).Uint16(30)
		w.Uint8(10).Uint16(12)
		w.Uint8(11)
		w.Uint8(12).Uint8(1)
		w.Uint8(13).Uint16(0xFFFF)
	})
	h, err := LoadHitSplat(b)
	require.NoError(t, err)
	assert.Equal(t, -1, h.FontType)
	assert.Equal(t, 0xFF0000, h.TextColor)
	assert.Equal(t, 1200, h.LeftSprite)
	assert.Equal(t, 70000, h.LeftSpriteAnim)
	assert.Equal(t, 5, h.BackgroundSprite)
	assert.Equal(t, 6, h.RightSpriteAnim)
	assert.Equal(t, -2, h.ScrollToOffsetX)
	assert.Equal(t, "%1", h.StringFormat)
	assert.Equal(t, 30, h.DisplayCycles)
	assert.Equal(t, 12, h.ScrollToOffsetY)
	assert.Equal(t, 0, h.FadeStartCycle)
	assert.Equal(t, 1, h.UseDamage)
	assert.Equal(t, -1, h.TextOffsetY)

	b = record(func(w *stream.Writer) { w.Uint8(14).Uint16(25) })
	h, err = LoadHitSplat(b)
	require.NoError(t, err)
	assert.Equal(t, 25, h.FadeStartCycle)
}

func TestLoadHitSplatMulti(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		build  func(w *stream.Writer)
		varbit int
		varp   int
		want   []int
	}{
		{
			name: "without fallback",
			build: func(w *stream.Writer) {
				w.Uint8(17).Uint16(300).Uint16(0xFFFF).Uint8(1).Uint16(4).Uint16(0xFFFF)
			},
			varbit: 300,
			varp:   -1,
			want:   []int{4, -1, -1},
		},
		{
			name: "with fallback",
			build: func(w *stream.Writer) {
				w.Uint8(18).Uint16(0xFFFF).Uint16(77).Uint16(9).Uint8(0).Uint16(2)
			},
			varbit: -1,
			varp:   77,
			want:   []int{2, 9},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, err := LoadHitSplat(record(tt.build))
			require.NoError(t, err)
			assert.Equal(t, tt.varbit, h.VarbitID)
			assert.Equal(t, tt.varp, h.VarpID)
			assert.Equal(t, tt.want, h.Multihitsplats)
		})
	}
}

func TestLoadHitSplatMalformedString(t *testing.T) {
	t.Parallel()

	b := record(func(w *stream.Writer) { w.Uint8(8).Uint8(1).CString("x") })
	_, err := LoadHitSplat(b)
	require.ErrorIs(t, err, cachetype.ErrMalformedRecord)
}

func TestLoadHitSplatUnknownOpcode(t *testing.T) {
	t.Parallel()

	_, err := LoadHitSplat([]byte{15, 0})
	require.ErrorIs(t, err, ErrUnknownOpcode)
}
