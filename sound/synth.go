package sound

import "math"

const (
	// semitoneRatio is the frequency ratio of one harmonic pitch unit.
	semitoneRatio = 1.0057929410678534

	// filterBlock is how many samples run between coefficient refreshes.
	filterBlock = 128

	// minTones is the shortest duration, in milliseconds, that renders sound.
	minTones = 10
)

// harmonic is the per-render state of one oscillator.
type harmonic struct {
	phase     int32
	delay     int
	volume    int32
	pitch     int32
	pitchBase int32
}

// toInt32 narrows f with saturation: NaN becomes 0 and values outside the
// int32 range clamp to its bounds.
func toInt32(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

// span is End-Start of e with 32-bit wraparound.
func span(e *Envelope) int32 {
	return int32(e.End) - int32(e.Start) //nolint:gosec // envelope bounds are decoded from 32-bit fields
}

// modulation returns the phase step range and base of a vibrato or tremolo
// envelope for d samples per millisecond.
func modulation(e *Envelope, d float64) (rng, base int32) {
	return toInt32(float64(span(e)) * 32.768 / d), toInt32(float64(e.Start) * 32.768 / d)
}

// harmonics prepares the oscillators of the voice for d samples per
// millisecond.
func (in *Instrument) harmonics(d float64) [maxHarmonics]harmonic {
	var hs [maxHarmonics]harmonic
	for i := range hs {
		if in.OscillatorVolume[i] == 0 {
			continue
		}
		hs[i] = harmonic{
			delay:     int(toInt32(float64(in.OscillatorDelays[i]) * d)),
			volume:    int32(in.OscillatorVolume[i]<<14) / 100, //nolint:gosec // volume is a 15-bit smart
			pitch:     toInt32(float64(span(in.Pitch)) * 32.768 * math.Pow(semitoneRatio, float64(in.OscillatorPitch[i])) / d),
			pitchBase: toInt32(float64(in.Pitch.Start) * 32.768 / d),
		}
	}
	return hs
}

// synthesize renders the voice into steps 16-bit samples spanning tones
// milliseconds. Voices shorter than 10ms are silent.
func (in *Instrument) synthesize(steps, tones int) []int32 {
	tables()
	samples := make([]int32, steps)
	if tones < minTones {
		return samples
	}

	d := float64(steps) / float64(tones)
	pitch := newStepper(in.Pitch)
	volume := newStepper(in.Volume)

	var (
		vibrato, vibratoAmp       *stepper
		vibratoRange, vibratoBase int32
		vibratoPhase              int32
		tremolo, tremoloAmp       *stepper
		tremoloRange, tremoloBase int32
		tremoloPhase              int32
	)
	if in.PitchModifier != nil && in.PitchModifierAmplitude != nil {
		vibrato = newStepper(in.PitchModifier)
		vibratoAmp = newStepper(in.PitchModifierAmplitude)
		vibratoRange, vibratoBase = modulation(in.PitchModifier, d)
	}
	if in.VolumeMultiplier != nil && in.VolumeMultiplierAmplitude != nil {
		tremolo = newStepper(in.VolumeMultiplier)
		tremoloAmp = newStepper(in.VolumeMultiplierAmplitude)
		tremoloRange, tremoloBase = modulation(in.VolumeMultiplier, d)
	}

	harmonics := in.harmonics(d)

	for i := range steps {
		p := pitch.next(steps)
		v := volume.next(steps)
		if vibrato != nil {
			mod := vibrato.next(steps)
			amp := vibratoAmp.next(steps)
			p += wave(in.PitchModifier.Form, vibratoPhase, amp) >> 1
			vibratoPhase += vibratoBase + (mod * vibratoRange >> 16)
		}
		if tremolo != nil {
			mod := tremolo.next(steps)
			amp := tremoloAmp.next(steps)
			v = v * ((wave(in.VolumeMultiplier.Form, tremoloPhase, amp) >> 1) + 32768) >> 15
			tremoloPhase += tremoloBase + (mod * tremoloRange >> 16)
		}
		for h := range harmonics {
			if in.OscillatorVolume[h] == 0 {
				continue
			}
			at := harmonics[h].delay + i
			if at >= steps {
				continue
			}
			samples[at] += wave(in.Pitch.Form, harmonics[h].phase, v*harmonics[h].volume>>15)
			harmonics[h].phase += (p * harmonics[h].pitch >> 16) + harmonics[h].pitchBase
		}
	}

	if in.Release != nil && in.Attack != nil {
		in.gate(samples)
	}
	if in.DelayTime > 0 && in.DelayDecay > 0 {
		delay := int(toInt32(float64(in.DelayTime) * d))
		for i := delay; i < steps; i++ {
			samples[i] += samples[i-delay] * int32(in.DelayDecay) / 100 //nolint:gosec // decay is a 15-bit smart
		}
	}
	if in.Filter.active() {
		in.filter(samples)
	}

	for i, s := range samples {
		samples[i] = min(max(s, math.MinInt16), math.MaxInt16)
	}
	return samples
}

// gate silences the sample stream in alternating on/off windows whose
// lengths follow the release and attack envelopes.
func (in *Instrument) gate(samples []int32) {
	steps := len(samples)
	release := newStepper(in.Release)
	attack := newStepper(in.Attack)
	width := span(in.Release)
	start := int32(in.Release.Start) //nolint:gosec // envelope bounds are 32-bit

	var counter int32
	muted := true
	for i := range samples {
		r := release.next(steps)
		a := attack.next(steps)
		threshold := (a*width >> 8) + start
		if muted {
			threshold = (r*width >> 8) + start
		}
		counter += 256
		if counter >= threshold {
			counter = 0
			muted = !muted
		}
		if muted {
			samples[i] = 0
		}
	}
}

// filter runs the voice's IIR filter over samples in place. Coefficients are
// recomputed from the filter envelope every filterBlock samples.
func (in *Instrument) filter(samples []int32) {
	steps := len(samples)
	st := &filterState{f: in.Filter}
	env := newStepper(in.FilterEnvelope)

	pos := env.next(steps + 1)
	zeros := st.compute(0, float32(pos)/65536.0)
	poles := st.compute(1, float32(pos)/65536.0)
	if steps < zeros+poles {
		return
	}

	mul := func(s, c int32) int32 {
		return int32(int64(s) * int64(c) >> 16) //nolint:gosec // fixed-point product fits after the shift
	}

	i := 0
	// Warm-up: fewer past outputs than poles exist.
	warm := min(poles, steps-zeros)
	for ; i < warm; i++ {
		acc := mul(samples[i+zeros], st.forward)
		for k := range zeros {
			acc += mul(samples[i+zeros-1-k], st.coeffs[0][k])
		}
		for k := range i {
			acc -= mul(samples[i-1-k], st.coeffs[1][k])
		}
		samples[i] = acc
		pos = env.next(steps + 1)
	}

	end := filterBlock
	for {
		end = min(end, steps-zeros)
		for ; i < end; i++ {
			acc := mul(samples[i+zeros], st.forward)
			for k := range zeros {
				acc += mul(samples[i+zeros-1-k], st.coeffs[0][k])
			}
			for k := range poles {
				acc -= mul(samples[i-1-k], st.coeffs[1][k])
			}
			samples[i] = acc
			pos = env.next(steps + 1)
		}
		if i >= steps-zeros {
			break
		}
		zeros = st.compute(0, float32(pos)/65536.0)
		poles = st.compute(1, float32(pos)/65536.0)
		end += filterBlock
	}

	// Tail: the look-ahead runs past the end of the input.
	for ; i < steps; i++ {
		var acc int32
		for k := i + zeros - steps; k < zeros; k++ {
			acc += mul(samples[i+zeros-1-k], st.coeffs[0][k])
		}
		for k := range poles {
			acc -= mul(samples[i-1-k], st.coeffs[1][k])
		}
		samples[i] = acc
		env.next(steps + 1)
	}
}
