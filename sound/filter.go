package sound

import (
	"fmt"
	"math"

	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/stream"
)

// maxPairs is the number of pole (or zero) pairs a filter direction holds.
const maxPairs = 4

// Filter is an IIR filter whose pole and zero pairs interpolate between two
// settings over the voice's duration, following the filter envelope.
//
// Index [dir] selects zeros (0) or poles (1); [dir][0] is the setting at the
// start and [dir][1] the setting at the end.
type Filter struct {
	Pairs      [2]int              `json:"pairs"`
	Unity      [2]int              `json:"unity"`
	Phases     [2][2][maxPairs]int `json:"phases"`
	Magnitudes [2][2][maxPairs]int `json:"magnitudes"`
}

// decode reads the filter. env receives the filter's envelope segments when
// the filter varies over time.
func (f *Filter) decode(r *stream.Reader, env *Envelope) error {
	counts, err := r.Uint8()
	if err != nil {
		return err
	}
	f.Pairs = [2]int{counts >> 4, counts & 0xF}
	if counts == 0 {
		f.Unity = [2]int{}
		return nil
	}
	if f.Pairs[0] > maxPairs || f.Pairs[1] > maxPairs {
		return fmt.Errorf("%w: filter declares %d zero and %d pole pairs", cachetype.ErrMalformedRecord, f.Pairs[0], f.Pairs[1])
	}

	if f.Unity[0], err = r.Uint16(); err != nil {
		return err
	}
	if f.Unity[1], err = r.Uint16(); err != nil {
		return err
	}
	migrated, err := r.Uint8()
	if err != nil {
		return err
	}

	for dir := range 2 {
		for p := range f.Pairs[dir] {
			if f.Phases[dir][0][p], err = r.Uint16(); err != nil {
				return err
			}
			if f.Magnitudes[dir][0][p], err = r.Uint16(); err != nil {
				return err
			}
		}
	}
	for dir := range 2 {
		for p := range f.Pairs[dir] {
			if migrated&(1<<(dir*4)<<p) == 0 {
				f.Phases[dir][1][p] = f.Phases[dir][0][p]
				f.Magnitudes[dir][1][p] = f.Magnitudes[dir][0][p]
				continue
			}
			if f.Phases[dir][1][p], err = r.Uint16(); err != nil {
				return err
			}
			if f.Magnitudes[dir][1][p], err = r.Uint16(); err != nil {
				return err
			}
		}
	}

	if migrated != 0 || f.Unity[1] != f.Unity[0] {
		return env.decodeSegments(r)
	}
	return nil
}

func (f *Filter) active() bool {
	return f.Pairs[0] > 0 || f.Pairs[1] > 0
}

// filterState holds the coefficients computed for one synthesis. Products are
// rounded to float32 before summing so no platform fuses them.
type filterState struct {
	f *Filter

	minimised [2][2 * maxPairs]float32
	coeffs    [2][2 * maxPairs]int32

	forwardMinimised float32
	forward          int32
}

func (s *filterState) magnitude(dir, pair int, t float32) float32 {
	m := float32(s.f.Magnitudes[dir][0][pair]) + float32(t*float32(s.f.Magnitudes[dir][1][pair]-s.f.Magnitudes[dir][0][pair]))
	m *= 0.0015258789
	return 1.0 - float32(math.Pow(10.0, float64(-m/20.0)))
}

func (s *filterState) phase(dir, pair int, t float32) float32 {
	p := float32(s.f.Phases[dir][0][pair]) + float32(t*float32(s.f.Phases[dir][1][pair]-s.f.Phases[dir][0][pair]))
	p *= 1.2207031e-4
	return normalize(p)
}

// normalize converts an octave offset from C1 into radians per sample.
func normalize(octaves float32) float32 {
	hz := 32.703197 * float32(math.Pow(2.0, float64(octaves)))
	return hz * 3.1415927 / 11025.0
}

// compute refreshes the coefficients of direction dir for envelope position t
// in [0, 1] and returns how many are in use.
func (s *filterState) compute(dir int, t float32) int {
	if dir == 0 {
		u := float32(s.f.Unity[0]) + float32(float32(s.f.Unity[1]-s.f.Unity[0])*t)
		u *= 0.0030517578
		s.forwardMinimised = float32(math.Pow(0.1, float64(u/20.0)))
		s.forward = toInt32(float64(s.forwardMinimised * 65536.0))
	}

	pairs := s.f.Pairs[dir]
	if pairs == 0 {
		return 0
	}

	c := &s.minimised[dir]
	m := s.magnitude(dir, 0, t)
	c[0] = -2.0 * m * float32(math.Cos(float64(s.phase(dir, 0, t))))
	c[1] = m * m
	for p := 1; p < pairs; p++ {
		m = s.magnitude(dir, p, t)
		a := -2.0 * m * float32(math.Cos(float64(s.phase(dir, p, t))))
		b := m * m
		c[p*2+1] = c[p*2-1] * b
		c[p*2] = float32(c[p*2-1]*a) + float32(c[p*2-2]*b)
		for k := p*2 - 1; k >= 2; k-- {
			c[k] += float32(c[k-1]*a) + float32(c[k-2]*b)
		}
		c[1] += float32(c[0]*a) + b
		c[0] += a
	}

	if dir == 0 {
		for k := range pairs * 2 {
			c[k] *= s.forwardMinimised
		}
	}
	for k := range pairs * 2 {
		s.coeffs[dir][k] = toInt32(float64(c[k] * 65536.0))
	}
	return pairs * 2
}
