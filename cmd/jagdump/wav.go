package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/meigma/jagcache/sound"
)

const wavHeaderSize = 44

// wavHeader returns the canonical 44-byte RIFF header for n bytes of 8-bit
// unsigned mono PCM at the track sample rate.
func wavHeader(n int) ([wavHeaderSize]byte, error) {
	var h [wavHeaderSize]byte
	if n < 0 || uint64(n) > math.MaxUint32-36 {
		return h, fmt.Errorf("pcm too large for wav: %d bytes", n)
	}
	dataLen := uint32(n) //nolint:gosec // bounded above

	copy(h[0:], "RIFF")
	binary.LittleEndian.PutUint32(h[4:], 36+dataLen)
	copy(h[8:], "WAVE")
	copy(h[12:], "fmt ")
	binary.LittleEndian.PutUint32(h[16:], 16)
	binary.LittleEndian.PutUint16(h[20:], 1) // PCM
	binary.LittleEndian.PutUint16(h[22:], 1) // mono
	binary.LittleEndian.PutUint32(h[24:], sound.SampleRate)
	binary.LittleEndian.PutUint32(h[28:], sound.SampleRate) // one byte per frame
	binary.LittleEndian.PutUint16(h[32:], 1)
	binary.LittleEndian.PutUint16(h[34:], 8)
	copy(h[36:], "data")
	binary.LittleEndian.PutUint32(h[40:], dataLen)
	return h, nil
}

// writeWAV writes pcm, as produced by sound.Track.Mix, as a WAV file.
func writeWAV(w io.Writer, pcm []byte) error {
	h, err := wavHeader(len(pcm))
	if err != nil {
		return err
	}
	if _, err := w.Write(h[:]); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return nil
}
