package sound

import (
	"math"
	"sync"
)

const tableSize = 32768

// Waveform tables shared by every synthesis. They are read-only once built.
var (
	tablesOnce sync.Once
	noiseTable [tableSize]int32
	sineTable  [tableSize]int32
)

func buildTables() {
	rng := newJavaRandom(0)
	for i := range noiseTable {
		noiseTable[i] = (rng.nextInt() & 2) - 1
	}
	for i := range sineTable {
		sineTable[i] = int32(math.Sin(float64(i)/5215.1903) * 16384.0)
	}
}

func tables() {
	tablesOnce.Do(buildTables)
}

// Oscillator forms.
const (
	FormOff    = 0
	FormSquare = 1
	FormSine   = 2
	FormSaw    = 3
	FormNoise  = 4
)

// wave evaluates oscillator form at phase with the given amplitude.
func wave(form int, phase, amplitude int32) int32 {
	switch form {
	case FormSquare:
		if phase&0x7FFF < 0x4000 {
			return amplitude
		}
		return -amplitude
	case FormSine:
		return sineTable[phase&0x7FFF] * amplitude >> 14
	case FormSaw:
		return (amplitude * (phase & 0x7FFF) >> 14) - amplitude
	case FormNoise:
		return amplitude * noiseTable[(phase/2607)&0x7FFF]
	default:
		return 0
	}
}
