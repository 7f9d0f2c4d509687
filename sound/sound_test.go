package sound

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/stream"
)

type voice struct {
	form       int
	duration   int
	offset     int
	volumes    []int
	delayTime  int
	delayDecay int
	gated      bool
	vibrato    bool
	filter     func(w *stream.Writer)
}

func writeEnvelope(w *stream.Writer, form, start, end int, segments ...[2]int) {
	w.Uint8(form).Int32(start).Int32(end).Uint8(len(segments))
	for _, s := range segments {
		w.Uint16(s[0]).Uint16(s[1])
	}
}

func flat(w *stream.Writer, form, start, end int) {
	writeEnvelope(w, form, start, end, [2]int{0, 65535}, [2]int{65535, 65535})
}

func writeVoice(w *stream.Writer, v voice) {
	flat(w, v.form, 1000, 2000)
	flat(w, 0, 0, 0)
	if v.vibrato {
		flat(w, FormSine, 10, 20)
		flat(w, 0, 0, 0)
	} else {
		w.Uint8(0)
	}
	w.Uint8(0)
	if v.gated {
		// The release form doubles as the pair's presence marker.
		writeEnvelope(w, FormSquare, 100, 300, [2]int{0, 0}, [2]int{65535, 65535})
		writeEnvelope(w, 0, 0, 0, [2]int{0, 32768}, [2]int{65535, 32768})
	} else {
		w.Uint8(0)
	}
	for i, vol := range v.volumes {
		w.UnsignedSmart(vol).Smart(i * 12).UnsignedSmart(i * 3)
	}
	w.UnsignedSmart(0)
	w.UnsignedSmart(v.delayTime).UnsignedSmart(v.delayDecay)
	w.Uint16(v.duration).Uint16(v.offset)
	if v.filter != nil {
		v.filter(w)
	} else {
		w.Uint8(0)
	}
}

func encodeTrack(start, end int, voices map[int]voice) []byte {
	w := &stream.Writer{}
	for slot := range MaxInstruments {
		v, ok := voices[slot]
		if !ok {
			w.Uint8(0)
			continue
		}
		writeVoice(w, v)
	}
	w.Uint16(start).Uint16(end)
	return w.Bytes()
}

func loadTrack(t *testing.T, voices map[int]voice) *Track {
	t.Helper()
	tr, err := Load(encodeTrack(0, 0, voices))
	require.NoError(t, err)
	return tr
}

// migratingFilter writes one zero pair and one pole pair that both move
// over the filter envelope.
func migratingFilter(w *stream.Writer) {
	w.Uint8(0x11).Uint16(0).Uint16(8192).Uint8(0x11)
	w.Uint16(30000).Uint16(20000)
	w.Uint16(40000).Uint16(30000)
	w.Uint16(35000).Uint16(25000)
	w.Uint16(45000).Uint16(10000)
	w.Uint8(2).Uint16(0).Uint16(0).Uint16(65535).Uint16(65535)
}

func square(duration, offset int) voice {
	return voice{form: FormSquare, duration: duration, offset: offset, volumes: []int{100}}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	b := encodeTrack(120, 480, map[int]voice{
		0: square(100, 0),
		3: {
			form: FormSine, duration: 250, offset: 40, volumes: []int{100, 50, 25}, delayTime: 30, delayDecay: 40,
			gated: true, vibrato: true, filter: migratingFilter,
		},
	})
	tr, err := Load(b)
	require.NoError(t, err)

	assert.Equal(t, 120, tr.Start)
	assert.Equal(t, 480, tr.End)
	for slot, in := range tr.Instruments {
		switch slot {
		case 0, 3:
			require.NotNil(t, in, "slot %d", slot)
		default:
			assert.Nil(t, in, "slot %d", slot)
		}
	}

	in := tr.Instruments[3]
	assert.Equal(t, FormSine, in.Pitch.Form)
	assert.Equal(t, 1000, in.Pitch.Start)
	assert.Equal(t, 2000, in.Pitch.End)
	assert.Equal(t, []int{0, 65535}, in.Pitch.Durations)
	assert.Equal(t, [maxHarmonics]int{100, 50, 25, 0, 0}, in.OscillatorVolume)
	assert.Equal(t, [maxHarmonics]int{0, 12, 24, 0, 0}, in.OscillatorPitch)
	assert.Equal(t, [maxHarmonics]int{0, 3, 6, 0, 0}, in.OscillatorDelays)
	assert.Equal(t, 30, in.DelayTime)
	assert.Equal(t, 40, in.DelayDecay)
	assert.Equal(t, 250, in.Duration)
	assert.Equal(t, 40, in.Offset)

	require.NotNil(t, in.PitchModifier)
	require.NotNil(t, in.PitchModifierAmplitude)
	assert.Equal(t, FormSine, in.PitchModifier.Form)
	assert.Equal(t, 10, in.PitchModifier.Start)
	assert.Equal(t, 20, in.PitchModifier.End)
	assert.Nil(t, in.VolumeMultiplier)
	assert.Nil(t, in.VolumeMultiplierAmplitude)

	require.NotNil(t, in.Release)
	require.NotNil(t, in.Attack)
	assert.Equal(t, FormSquare, in.Release.Form)
	assert.Equal(t, 100, in.Release.Start)
	assert.Equal(t, 300, in.Release.End)
	assert.Equal(t, []int{0, 65535}, in.Release.Durations)
	assert.Equal(t, []int{0, 65535}, in.Release.Peaks)
	assert.Equal(t, []int{32768, 32768}, in.Attack.Peaks)

	require.True(t, in.Filter.active())
	assert.Equal(t, [2]int{1, 1}, in.Filter.Pairs)
	assert.Equal(t, [2]int{0, 8192}, in.Filter.Unity)
	assert.Equal(t, [2][maxPairs]int{{30000}, {35000}}, in.Filter.Phases[0])
	assert.Equal(t, [2][maxPairs]int{{20000}, {25000}}, in.Filter.Magnitudes[0])
	assert.Equal(t, [2][maxPairs]int{{40000}, {45000}}, in.Filter.Phases[1])
	assert.Equal(t, [2][maxPairs]int{{30000}, {10000}}, in.Filter.Magnitudes[1])
	assert.Equal(t, []int{0, 65535}, in.FilterEnvelope.Durations)
	assert.Equal(t, []int{0, 65535}, in.FilterEnvelope.Peaks)

	plain := tr.Instruments[0]
	assert.Nil(t, plain.PitchModifier)
	assert.Nil(t, plain.Release)
	assert.False(t, plain.Filter.active())

	assert.Equal(t, 290*SampleRate/1000, tr.Length())
	assert.Equal(t, 290*time.Millisecond, tr.Duration())
	start, end := tr.Loop()
	assert.Equal(t, 2646, start)
	assert.Equal(t, 10584, end)
}

func TestLoadTruncated(t *testing.T) {
	t.Parallel()

	b := encodeTrack(0, 0, map[int]voice{0: square(100, 0)})
	for _, n := range []int{0, 5, len(b) - 13, len(b) - 1} {
		_, err := Load(b[:n])
		require.ErrorIs(t, err, cachetype.ErrUnexpectedEOF, "cut at %d", n)

		var le *cachetype.LocationError
		require.ErrorAs(t, err, &le)
		assert.LessOrEqual(t, le.Offset, n)
	}
}

func TestLoadMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		voice voice
	}{
		{"six harmonics", voice{form: FormSquare, duration: 10, volumes: []int{1, 2, 3, 4, 5, 6}}},
		{"too many filter pairs", voice{form: FormSquare, duration: 10, volumes: []int{1}, filter: func(w *stream.Writer) {
			w.Uint8(0x51)
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(encodeTrack(0, 0, map[int]voice{0: tt.voice}))
			require.ErrorIs(t, err, cachetype.ErrMalformedRecord)
		})
	}
}

func TestMixEmpty(t *testing.T) {
	t.Parallel()

	tr := loadTrack(t, nil)
	assert.Zero(t, tr.Length())
	assert.Empty(t, tr.Mix())
	assert.Empty(t, tr.MixSigned())
}

func TestMixLengthAndEncoding(t *testing.T) {
	t.Parallel()

	tr := loadTrack(t, map[int]voice{0: square(100, 0), 4: square(50, 80)})
	signed := tr.MixSigned()
	unsigned := tr.Mix()
	require.Len(t, signed, 130*SampleRate/1000)
	require.Len(t, unsigned, len(signed))
	for i := range signed {
		require.Equal(t, signed[i]^0x80, unsigned[i], "sample %d", i)
	}

	audible := false
	for _, b := range unsigned {
		if b != 0x80 {
			audible = true
			break
		}
	}
	assert.True(t, audible)
}

func TestMixDeterministic(t *testing.T) {
	t.Parallel()

	voices := map[int]voice{
		0: {form: FormNoise, duration: 300, volumes: []int{80, 40}, delayTime: 50, delayDecay: 60},
		1: {form: FormSaw, duration: 200, offset: 25, volumes: []int{100}, gated: true, vibrato: true},
		2: {form: FormSine, duration: 400, volumes: []int{90, 30, 10}, filter: migratingFilter},
	}
	a := loadTrack(t, voices)
	b := loadTrack(t, voices)
	require.True(t, a.Instruments[2].Filter.active())

	first := a.Mix()
	assert.Equal(t, first, a.Mix())
	assert.Equal(t, first, b.Mix())
	assert.Len(t, first, 400*SampleRate/1000)
}

func TestMixClips(t *testing.T) {
	t.Parallel()

	one := loadTrack(t, map[int]voice{0: square(100, 0)})
	three := loadTrack(t, map[int]voice{0: square(100, 0), 1: square(100, 0), 2: square(100, 0)})

	// A full-scale square already sits on the rails; stacking saturates.
	got := three.MixSigned()
	assert.Equal(t, one.MixSigned(), got)
	for _, b := range got {
		v := int8(b)
		require.True(t, v == 127 || v == -128, "sample %d", v)
	}
}

func TestSynthesizeShortVoiceIsSilent(t *testing.T) {
	t.Parallel()

	tr := loadTrack(t, map[int]voice{0: square(9, 0)})
	samples := tr.Instruments[0].synthesize(9*SampleRate/1000, 9)
	assert.Len(t, samples, 198)
	for _, s := range samples {
		require.Zero(t, s)
	}
}

func TestSynthesizeRange(t *testing.T) {
	t.Parallel()

	tr := loadTrack(t, map[int]voice{0: {form: FormSine, duration: 100, volumes: []int{100, 100, 100, 100, 100}, delayTime: 5, delayDecay: 100}})
	for _, s := range tr.Instruments[0].synthesize(2205, 100) {
		require.GreaterOrEqual(t, s, int32(-32768))
		require.LessOrEqual(t, s, int32(32767))
	}
}

func TestMixAll(t *testing.T) {
	t.Parallel()

	tracks := []*Track{
		loadTrack(t, map[int]voice{0: square(100, 0)}),
		nil,
		loadTrack(t, map[int]voice{0: square(20, 0)}),
	}
	got, err := MixAll(context.Background(), tracks, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, tracks[0].Mix(), got[0])
	assert.Nil(t, got[1])
	assert.Equal(t, tracks[2].Mix(), got[2])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = MixAll(ctx, tracks, 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestJavaRandom(t *testing.T) {
	t.Parallel()

	r := newJavaRandom(0)
	assert.Equal(t, int32(-1155484576), r.nextInt())
	assert.Equal(t, int32(-723955400), r.nextInt())
}

func TestTables(t *testing.T) {
	t.Parallel()

	tables()
	for i, v := range noiseTable {
		require.True(t, v == 1 || v == -1, "noise[%d] = %d", i, v)
	}
	assert.Zero(t, sineTable[0])
	assert.Equal(t, int32(16383), sineTable[8192])

	assert.Equal(t, int32(500), wave(FormSquare, 0, 500))
	assert.Equal(t, int32(-500), wave(FormSquare, 0x4000, 500))
	assert.Equal(t, int32(-500), wave(FormSaw, 0, 500))
	assert.Zero(t, wave(FormOff, 123, 500))
	assert.Zero(t, wave(9, 123, 500))
}

func TestStepperWithoutSegments(t *testing.T) {
	t.Parallel()

	s := newStepper(&Envelope{})
	assert.Zero(t, s.next(100))
}

func TestOptionalPairMarker(t *testing.T) {
	t.Parallel()

	pair := func(form int) []byte {
		w := &stream.Writer{}
		writeEnvelope(w, form, 100, 300, [2]int{0, 0}, [2]int{65535, 65535})
		writeEnvelope(w, FormSquare, 0, 0, [2]int{0, 32768}, [2]int{65535, 32768})
		return w.Bytes()
	}

	// A zero form is read as the absent-pair marker, so a release envelope
	// with form 0 cannot be stored.
	r := stream.NewReader(pair(FormOff))
	a, b, err := optionalPair(r)
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.Nil(t, b)
	assert.Equal(t, 1, r.Offset())

	encoded := pair(FormSquare)
	r = stream.NewReader(encoded)
	a, b, err = optionalPair(r)
	require.NoError(t, err)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, FormSquare, a.Form)
	assert.Equal(t, []int{32768, 32768}, b.Peaks)
	assert.Equal(t, len(encoded), r.Offset())
}

func flatEnvelope(form, start, end int) *Envelope {
	return &Envelope{Form: form, Start: start, End: end, Durations: []int{0, 65535}, Peaks: []int{65535, 65535}}
}

// tone is a 100ms full-volume voice. Its oscillator advances 2971 phase
// units per sample, so a square wave flips sign every 5.5 samples.
func tone(form int) *Instrument {
	return &Instrument{
		Pitch:            flatEnvelope(form, 1000, 2000),
		Volume:           flatEnvelope(FormOff, 0, 0),
		OscillatorVolume: [maxHarmonics]int{100},
		Filter:           &Filter{},
		FilterEnvelope:   newEnvelope(),
		Duration:         100,
	}
}

func TestStepper(t *testing.T) {
	t.Parallel()

	s := newStepper(&Envelope{Durations: []int{0, 32768, 65535}, Peaks: []int{0, 65535, 0}})
	var got []int32
	for range 8 {
		got = append(got, s.next(8))
	}
	assert.Equal(t, []int32{0, 16383, 32767, 49151, 65535, 43690, 21845, 0}, got)
}

func TestSynthesizeWaveForms(t *testing.T) {
	t.Parallel()

	const hi, lo = 32767, -32767
	tests := []struct {
		name string
		form int
		want []int32
	}{
		{"square", FormSquare, []int32{hi, hi, hi, hi, hi, hi, lo, lo, lo, lo, lo, lo, hi}},
		{"sine", FormSine, []int32{0, 17671, 29763, 32453, 24893}},
		{"saw", FormSaw, []int32{lo, -26826, -20884}},
		{"noise", FormNoise, []int32{lo, lo, hi, hi, hi}},
		{"off", FormOff, []int32{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			samples := tone(tt.form).synthesize(2205, 100)
			require.Len(t, samples, 2205)
			assert.Equal(t, tt.want, samples[:len(tt.want)])
		})
	}
}

func TestMixSquareSamples(t *testing.T) {
	t.Parallel()

	tr := loadTrack(t, map[int]voice{0: square(100, 0)})
	got := tr.MixSigned()[:13]
	want := []int8{127, 127, 127, 127, 127, 127, -128, -128, -128, -128, -128, -128, 127}
	for i := range want {
		assert.Equal(t, want[i], int8(got[i]), "sample %d", i)
	}
	assert.Equal(t, byte(0xFF), tr.Mix()[0])
	assert.Equal(t, byte(0x00), tr.Mix()[6])
}

func TestSynthesizeEcho(t *testing.T) {
	t.Parallel()

	in := tone(FormSquare)
	in.DelayTime = 1 // 22 samples
	in.DelayDecay = 50
	samples := in.synthesize(2205, 100)

	assert.Equal(t, int32(32767), samples[0])
	assert.Equal(t, int32(-32767), samples[21])
	assert.Equal(t, int32(-32767+16383), samples[22])
	// Echo pushes past the 16-bit range and is clamped.
	assert.Equal(t, int32(32767), samples[23])
	assert.Equal(t, int32(-32768), samples[28])
}

func TestSynthesizeGate(t *testing.T) {
	t.Parallel()

	in := tone(FormSquare)
	// Muted windows last 4 samples (1023 threshold), open ones 2 (512).
	in.Release = flatEnvelope(FormSquare, 0, 4)
	in.Attack = &Envelope{Form: FormSquare, Durations: []int{0, 65535}, Peaks: []int{32768, 32768}}
	samples := in.synthesize(2205, 100)

	want := []int32{0, 0, 0, 32767, 32767, 0, 0, 0, 0, -32767, -32767, 0}
	assert.Equal(t, want, samples[:len(want)])
}

func TestSynthesizeExtremeBounds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int32(-1), span(&Envelope{Start: math.MinInt32, End: math.MaxInt32}))
	assert.Equal(t, int32(1), span(&Envelope{Start: math.MaxInt32, End: math.MinInt32}))

	assert.Equal(t, int32(math.MaxInt32), toInt32(1.86e44))
	assert.Equal(t, int32(math.MinInt32), toInt32(-1.86e44))
	assert.Equal(t, int32(math.MaxInt32), toInt32(math.Inf(1)))
	assert.Zero(t, toInt32(math.NaN()))
	assert.Equal(t, int32(-1), toInt32(-1.9))

	in := tone(FormSquare)
	in.Pitch.Start, in.Pitch.End = math.MinInt32, math.MaxInt32
	h := in.harmonics(22.05)
	assert.Equal(t, int32(-1), h[0].pitch)
	assert.Equal(t, int32(math.MinInt32), h[0].pitchBase)

	in = tone(FormSquare)
	in.OscillatorPitch[0] = 16383
	assert.Equal(t, int32(math.MaxInt32), in.harmonics(22.05)[0].pitch)

	rng, base := modulation(&Envelope{Start: math.MaxInt32, End: math.MinInt32}, 22.05)
	assert.Equal(t, int32(1), rng)
	assert.Equal(t, int32(math.MaxInt32), base)

	in = tone(FormSine)
	in.Pitch.Start, in.Pitch.End = math.MinInt32, math.MaxInt32
	in.PitchModifier = flatEnvelope(FormSaw, math.MaxInt32, math.MinInt32)
	in.PitchModifierAmplitude = flatEnvelope(FormOff, 0, 0)
	first := in.synthesize(2205, 100)
	assert.Equal(t, first, in.synthesize(2205, 100))
	for _, s := range first {
		require.GreaterOrEqual(t, s, int32(math.MinInt16))
		require.LessOrEqual(t, s, int32(math.MaxInt16))
	}
}

func fixedMul(s, c int32) int32 {
	return int32(int64(s) * int64(c) >> 16)
}

func TestFilterSinglePole(t *testing.T) {
	t.Parallel()

	// One pole pair at C1 with ~6dB magnitude:
	// m = 1 - 10^(-6/20) = 0.4988, c0 = -2m cos(0.0093188), c1 = m^2.
	f := &Filter{Pairs: [2]int{0, 1}}
	f.Magnitudes[1][0][0], f.Magnitudes[1][1][0] = 3932, 3932

	st := &filterState{f: f}
	assert.Zero(t, st.compute(0, 0))
	assert.Equal(t, int32(65536), st.forward)
	require.Equal(t, 2, st.compute(1, 0))
	c0, c1 := st.coeffs[1][0], st.coeffs[1][1]
	assert.Equal(t, int32(-65375), c0)
	assert.Equal(t, int32(16305), c1)

	in := &Instrument{Filter: f, FilterEnvelope: newEnvelope()}
	samples := make([]int32, 300)
	samples[0] = 32768
	in.filter(samples)

	assert.Equal(t, []int32{32768, 32688, 24456}, samples[:3])
	want := []int32{32768, 32688}
	for i := 2; i < len(samples); i++ {
		want = append(want, -fixedMul(want[i-1], c0)-fixedMul(want[i-2], c1))
	}
	assert.Equal(t, want, samples)
}

func TestFilterRefreshesEveryBlock(t *testing.T) {
	t.Parallel()

	// A zero pair of zero magnitude is a pure two-sample advance scaled by
	// the unity gain, which migrates from 0dB towards 20dB of attenuation.
	f := &Filter{Pairs: [2]int{1, 0}, Unity: [2]int{0, 6554}}
	in := &Instrument{Filter: f, FilterEnvelope: newEnvelope()}
	samples := make([]int32, 300)
	for i := range samples {
		samples[i] = 10000
	}
	in.filter(samples)

	gain := func(pos int) float64 {
		u := 6554 * float64(pos) / 65536 * 0.0030517578
		return math.Pow(0.1, u/20)
	}

	for i := range filterBlock {
		require.Equal(t, int32(10000), samples[i], "sample %d", i)
	}
	second := samples[filterBlock]
	for i := filterBlock; i < 2*filterBlock; i++ {
		require.Equal(t, second, samples[i], "sample %d", i)
	}
	third := samples[2*filterBlock]
	for i := 2 * filterBlock; i < 298; i++ {
		require.Equal(t, third, samples[i], "sample %d", i)
	}
	// The envelope sits at 27961 after 128 samples and 55923 after 256.
	assert.InDelta(t, gain(27961), float64(second)/10000, 0.001)
	assert.InDelta(t, gain(55923), float64(third)/10000, 0.001)
	assert.Less(t, third, second)
	assert.Equal(t, []int32{0, 0}, samples[298:])
}
