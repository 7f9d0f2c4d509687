package sound

import "github.com/meigma/jagcache/internal/stream"

// Envelope is a piecewise linear curve over a voice's duration. Durations
// and peaks are 16-bit fractions: a duration of 65535 is the end of the sound
// and a peak of 65535 is full scale.
type Envelope struct {
	Form  int `json:"form"`
	Start int `json:"start"`
	End   int `json:"end"`

	Durations []int `json:"durations"`
	Peaks     []int `json:"phases"`
}

func newEnvelope() *Envelope {
	return &Envelope{
		Durations: []int{0, 65535},
		Peaks:     []int{0, 65535},
	}
}

func (e *Envelope) decode(r *stream.Reader) error {
	var err error
	if e.Form, err = r.Uint8(); err != nil {
		return err
	}
	if e.Start, err = r.Int32(); err != nil {
		return err
	}
	if e.End, err = r.Int32(); err != nil {
		return err
	}
	return e.decodeSegments(r)
}

func (e *Envelope) decodeSegments(r *stream.Reader) error {
	n, err := r.Uint8()
	if err != nil {
		return err
	}
	e.Durations = make([]int, n)
	e.Peaks = make([]int, n)
	for i := range n {
		if e.Durations[i], err = r.Uint16(); err != nil {
			return err
		}
		if e.Peaks[i], err = r.Uint16(); err != nil {
			return err
		}
	}
	return nil
}

// stepper walks an envelope one sample at a time. Each synthesis owns its
// steppers, so an Envelope is never mutated by rendering.
type stepper struct {
	e         *Envelope
	tick      int32
	critical  int32
	segment   int
	amplitude int32
	step      int32
}

func newStepper(e *Envelope) *stepper {
	return &stepper{e: e}
}

// next returns the envelope value for the current sample, scaled to 16 bits,
// and advances. period is the total number of samples the envelope spans.
func (s *stepper) next(period int) int32 {
	n := len(s.e.Peaks)
	if n == 0 {
		return 0
	}
	if s.tick >= s.critical {
		s.amplitude = int32(s.e.Peaks[s.segment]) << 15 //nolint:gosec // peaks are 16-bit
		s.segment++
		if s.segment >= n {
			s.segment = n - 1
		}
		s.critical = toInt32(float64(s.e.Durations[s.segment]) / 65536.0 * float64(period))
		if s.critical > s.tick {
			s.step = ((int32(s.e.Peaks[s.segment]) << 15) - s.amplitude) / (s.critical - s.tick) //nolint:gosec // peaks are 16-bit
		}
	}
	s.amplitude += s.step
	s.tick++
	return (s.amplitude - s.step) >> 15
}
