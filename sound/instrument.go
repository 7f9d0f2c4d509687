package sound

import (
	"fmt"

	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/stream"
)

// maxHarmonics is the number of oscillators a voice can stack.
const maxHarmonics = 5

// Instrument is one voice of a track.
type Instrument struct {
	Pitch  *Envelope `json:"pitch"`
	Volume *Envelope `json:"volume"`

	// Vibrato: optional, both set or both nil.
	PitchModifier          *Envelope `json:"pitchModifier,omitempty"`
	PitchModifierAmplitude *Envelope `json:"pitchModifierAmplitude,omitempty"`

	// Tremolo: optional, both set or both nil.
	VolumeMultiplier          *Envelope `json:"volumeMultiplier,omitempty"`
	VolumeMultiplierAmplitude *Envelope `json:"volumeMultiplierAmplitude,omitempty"`

	// Gating: optional, both set or both nil.
	Release *Envelope `json:"release,omitempty"`
	Attack  *Envelope `json:"attack,omitempty"`

	// Harmonics. A zero volume ends the list.
	OscillatorVolume [maxHarmonics]int `json:"oscillatorVolume"`
	OscillatorPitch  [maxHarmonics]int `json:"oscillatorPitch" jsonschema:"description=Semitone offset of each harmonic"`
	OscillatorDelays [maxHarmonics]int `json:"oscillatorDelays" jsonschema:"description=Start delay of each harmonic in milliseconds"`

	DelayTime  int `json:"delayTime" jsonschema:"description=Echo delay in milliseconds"`
	DelayDecay int `json:"delayDecay" jsonschema:"description=Echo feedback in percent"`

	Filter         *Filter   `json:"filter"`
	FilterEnvelope *Envelope `json:"filterEnvelope"`

	Duration int `json:"duration" jsonschema:"description=Length in milliseconds"`
	Offset   int `json:"offset" jsonschema:"description=Start within the track in milliseconds"`
}

func decodeInstrument(r *stream.Reader) (*Instrument, error) {
	in := &Instrument{
		Pitch:          newEnvelope(),
		Volume:         newEnvelope(),
		Filter:         &Filter{},
		FilterEnvelope: newEnvelope(),
	}
	if err := in.Pitch.decode(r); err != nil {
		return nil, err
	}
	if err := in.Volume.decode(r); err != nil {
		return nil, err
	}

	var err error
	if in.PitchModifier, in.PitchModifierAmplitude, err = optionalPair(r); err != nil {
		return nil, err
	}
	if in.VolumeMultiplier, in.VolumeMultiplierAmplitude, err = optionalPair(r); err != nil {
		return nil, err
	}
	if in.Release, in.Attack, err = optionalPair(r); err != nil {
		return nil, err
	}

	for i := range 10 {
		volume, err := r.UnsignedSmart()
		if err != nil {
			return nil, err
		}
		if volume == 0 {
			break
		}
		if i >= maxHarmonics {
			return nil, fmt.Errorf("%w: more than %d harmonics", cachetype.ErrMalformedRecord, maxHarmonics)
		}
		in.OscillatorVolume[i] = volume
		if in.OscillatorPitch[i], err = r.Smart(); err != nil {
			return nil, err
		}
		if in.OscillatorDelays[i], err = r.UnsignedSmart(); err != nil {
			return nil, err
		}
	}

	if in.DelayTime, err = r.UnsignedSmart(); err != nil {
		return nil, err
	}
	if in.DelayDecay, err = r.UnsignedSmart(); err != nil {
		return nil, err
	}
	if in.Duration, err = r.Uint16(); err != nil {
		return nil, err
	}
	if in.Offset, err = r.Uint16(); err != nil {
		return nil, err
	}
	if err := in.Filter.decode(r, in.FilterEnvelope); err != nil {
		return nil, err
	}
	return in, nil
}

// optionalPair reads two envelopes when the next byte is non-zero, and
// consumes the zero byte otherwise.
func optionalPair(r *stream.Reader) (*Envelope, *Envelope, error) {
	p, err := r.Peek()
	if err != nil {
		return nil, nil, err
	}
	if p == 0 {
		_, err := r.Uint8()
		return nil, nil, err
	}
	a, b := newEnvelope(), newEnvelope()
	if err := a.decode(r); err != nil {
		return nil, nil, err
	}
	if err := b.decode(r); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
