package stream

import "golang.org/x/text/encoding/charmap"

// decodeCP1252 maps one cache string byte to a rune. Bytes that CP1252 leaves
// unassigned decode to '?'.
func decodeCP1252(c byte) rune {
	switch c {
	case 0x81, 0x8D, 0x8F, 0x90, 0x9D:
		return '?'
	}
	return charmap.Windows1252.DecodeByte(c)
}

// encodeCP1252 maps a rune back to its cache byte, substituting '?' for runes
// outside the code page.
func encodeCP1252(r rune) byte {
	if b, ok := charmap.Windows1252.EncodeRune(r); ok {
		return b
	}
	return '?'
}

// DecodeChar returns the rune a single cache byte represents. Script variable
// type keys are stored this way.
func DecodeChar(c byte) rune {
	return decodeCP1252(c)
}
