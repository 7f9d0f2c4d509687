// Package sound decodes sound effect tracks and renders them to PCM.
//
// A track is up to ten voices, each a stack of oscillators shaped by
// envelopes, optionally gated, echoed and filtered. Rendering is pure integer
// arithmetic over shared read-only wave tables, so the same track always mixes
// to the same bytes and independent tracks can be mixed in parallel.
package sound

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/stream"
)

// SampleRate is the rate, in Hz, of every rendered track.
const SampleRate = 22050

// MaxInstruments is the number of voice slots in a track.
const MaxInstruments = 10

// Track is a decoded sound effect.
type Track struct {
	Instruments [MaxInstruments]*Instrument `json:"instruments"`

	// Loop bounds in milliseconds.
	Start int `json:"start"`
	End   int `json:"end"`
}

// Load decodes a track record. Errors carry the offset they occurred at.
func Load(b []byte) (*Track, error) {
	r := stream.NewReader(b)
	t := &Track{}
	for slot := range t.Instruments {
		at := r.Offset()
		p, err := r.Peek()
		if err != nil {
			return nil, cachetype.Locate(fmt.Errorf("instrument %d: %w", slot, err), -1, -1, -1, at)
		}
		if p == 0 {
			_, _ = r.Uint8()
			continue
		}
		in, err := decodeInstrument(r)
		if err != nil {
			return nil, cachetype.Locate(fmt.Errorf("instrument %d: %w", slot, err), -1, -1, -1, r.Offset())
		}
		t.Instruments[slot] = in
	}

	var err error
	if t.Start, err = r.Uint16(); err != nil {
		return nil, cachetype.Locate(fmt.Errorf("loop start: %w", err), -1, -1, -1, r.Offset())
	}
	if t.End, err = r.Uint16(); err != nil {
		return nil, cachetype.Locate(fmt.Errorf("loop end: %w", err), -1, -1, -1, r.Offset())
	}
	return t, nil
}

// Length returns the number of samples the track renders to.
func (t *Track) Length() int {
	return t.millis() * SampleRate / 1000
}

// Duration returns the playing time of the rendered track.
func (t *Track) Duration() time.Duration {
	return time.Duration(t.millis()) * time.Millisecond
}

// Loop returns the loop bounds as sample positions.
func (t *Track) Loop() (start, end int) {
	return t.Start * SampleRate / 1000, t.End * SampleRate / 1000
}

func (t *Track) millis() int {
	longest := 0
	for _, in := range t.Instruments {
		if in != nil {
			longest = max(longest, in.Duration+in.Offset)
		}
	}
	return longest
}

// MixSigned renders the track as signed 8-bit mono PCM at SampleRate.
func (t *Track) MixSigned() []byte {
	n := t.Length()
	out := make([]byte, n)
	if n == 0 {
		return out
	}

	for _, in := range t.Instruments {
		if in == nil {
			continue
		}
		steps := in.Duration * SampleRate / 1000
		offset := in.Offset * SampleRate / 1000
		samples := in.synthesize(steps, in.Duration)
		for i, s := range samples {
			at := i + offset
			if at >= n {
				break
			}
			v := (s >> 8) + int32(int8(out[at]))
			if (v+128)&-256 != 0 {
				v = v>>31 ^ 127
			}
			out[at] = byte(int8(v)) //nolint:gosec // clipped to int8 above
		}
	}
	return out
}

// Mix renders the track as unsigned 8-bit mono PCM at SampleRate, the
// encoding WAV uses for 8-bit samples.
func (t *Track) Mix() []byte {
	out := t.MixSigned()
	for i := range out {
		out[i] ^= 0x80
	}
	return out
}

// MixAll renders tracks concurrently with at most workers goroutines and
// returns the unsigned PCM of each track in input order. Nil tracks render
// to nil. workers <= 0 means no limit.
func MixAll(ctx context.Context, tracks []*Track, workers int) ([][]byte, error) {
	out := make([][]byte, len(tracks))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, t := range tracks {
		if t == nil {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = t.Mix()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
