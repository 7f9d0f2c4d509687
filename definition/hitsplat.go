package definition

import (
	"github.com/meigma/jagcache/internal/stream"
)

// HitSplat describes how a hit splat is drawn.
type HitSplat struct {
	FontType         int    `json:"fontType"`
	TextColor        int    `json:"textColor"`
	LeftSprite       int    `json:"leftSprite"`
	LeftSpriteAnim   int    `json:"leftSpriteAnim"`
	BackgroundSprite int    `json:"backgroundSprite"`
	RightSpriteAnim  int    `json:"rightSpriteAnim"`
	ScrollToOffsetX  int    `json:"scrollToOffsetX"`
	ScrollToOffsetY  int    `json:"scrollToOffsetY"`
	StringFormat     string `json:"stringFormat"`
	DisplayCycles    int    `json:"displayCycles"`
	FadeStartCycle   int    `json:"fadeStartCycle"`
	UseDamage        int    `json:"useDamage"`
	TextOffsetY      int    `json:"textOffsetY"`
	VarbitID         int    `json:"varbitID"`
	VarpID           int    `json:"varpID"`

	// Multihitsplats lists the splats to choose between by variable value;
	// the last entry is the fallback id. -1 marks unused slots.
	Multihitsplats []int `json:"multihitsplats,omitempty"`
}

func newHitSplat() *HitSplat {
	return &HitSplat{
		FontType:         -1,
		TextColor:        16777215,
		LeftSprite:       -1,
		LeftSpriteAnim:   -1,
		BackgroundSprite: -1,
		RightSpriteAnim:  -1,
		DisplayCycles:    70,
		FadeStartCycle:   -1,
		UseDamage:        -1,
		VarbitID:         -1,
		VarpID:           -1,
	}
}

var hitSplatTable = Table[HitSplat]{
	1:  Int(bigSmart2, func(h *HitSplat, v int) { h.FontType = v }),
	2:  Int(u24, func(h *HitSplat, v int) { h.TextColor = v }),
	3:  Int(bigSmart2, func(h *HitSplat, v int) { h.LeftSprite = v }),
	4:  Int(bigSmart2, func(h *HitSplat, v int) { h.LeftSpriteAnim = v }),
	5:  Int(bigSmart2, func(h *HitSplat, v int) { h.BackgroundSprite = v }),
	6:  Int(bigSmart2, func(h *HitSplat, v int) { h.RightSpriteAnim = v }),
	7:  Int(i16, func(h *HitSplat, v int) { h.ScrollToOffsetX = v }),
	8:  String(cstring2, func(h *HitSplat, s string) { h.StringFormat = s }),
	9:  Int(u16, func(h *HitSplat, v int) { h.DisplayCycles = v }),
	10: Int(i16, func(h *HitSplat, v int) { h.ScrollToOffsetY = v }),
	11: func(_ *stream.Reader, h *HitSplat) error {
		h.FadeStartCycle = 0
		return nil
	},
	12: Int(u8, func(h *HitSplat, v int) { h.UseDamage = v }),
	13: Int(i16, func(h *HitSplat, v int) { h.TextOffsetY = v }),
	14: Int(u16, func(h *HitSplat, v int) { h.FadeStartCycle = v }),
	17: multiSplat(false),
	18: multiSplat(true),
}

// multiSplat reads a variable-driven splat list. withFallback selects the
// variant carrying an explicit fallback id.
func multiSplat(withFallback bool) Field[HitSplat] {
	return func(r *stream.Reader, h *HitSplat) error {
		var err error
		if h.VarbitID, err = optionalU16(r); err != nil {
			return err
		}
		if h.VarpID, err = optionalU16(r); err != nil {
			return err
		}
		fallback := -1
		if withFallback {
			if fallback, err = optionalU16(r); err != nil {
				return err
			}
		}
		n, err := r.Uint8()
		if err != nil {
			return err
		}
		ids := make([]int, n+2)
		for i := 0; i <= n; i++ {
			if ids[i], err = optionalU16(r); err != nil {
				return err
			}
		}
		ids[n+1] = fallback
		h.Multihitsplats = ids
		return nil
	}
}

// optionalU16 reads a u16 where 0xFFFF means absent.
func optionalU16(r *stream.Reader) (int, error) {
	v, err := r.Uint16()
	if err != nil {
		return 0, err
	}
	if v == 0xFFFF {
		return -1, nil
	}
	return v, nil
}

// LoadHitSplat decodes a hit splat from bytes already extracted from its file.
func LoadHitSplat(b []byte) (*HitSplat, error) {
	h := newHitSplat()
	if err := Decode(stream.NewReader(b), hitSplatTable, h); err != nil {
		return nil, err
	}
	return h, nil
}
