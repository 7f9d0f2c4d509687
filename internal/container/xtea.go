package container

import (
	"fmt"

	"golang.org/x/crypto/xtea"

	"github.com/meigma/jagcache/internal/cachetype"
)

// Keys is a 128-bit XTEA key as four signed words, the form key files use.
// The zero value means the envelope is not encrypted.
type Keys [4]int32

// IsZero reports whether no key is set.
func (k Keys) IsZero() bool {
	return k == Keys{}
}

func (k Keys) cipher() (*xtea.Cipher, error) {
	var key [16]byte
	for i, w := range k {
		u := uint32(w) //nolint:gosec // bit reinterpretation
		key[i*4] = byte(u >> 24)
		key[i*4+1] = byte(u >> 16)
		key[i*4+2] = byte(u >> 8)
		key[i*4+3] = byte(u)
	}
	c, err := xtea.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("%w: xtea: %v", cachetype.ErrMalformedRecord, err)
	}
	return c, nil
}

// decrypt returns a decrypted copy of b. A trailing partial block is copied
// unchanged.
func (k Keys) decrypt(b []byte) ([]byte, error) {
	c, err := k.cipher()
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), b...)
	for off := 0; off+xtea.BlockSize <= len(out); off += xtea.BlockSize {
		c.Decrypt(out[off:off+xtea.BlockSize], out[off:off+xtea.BlockSize])
	}
	return out, nil
}

// encrypt is the inverse of decrypt.
func (k Keys) encrypt(b []byte) ([]byte, error) {
	c, err := k.cipher()
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), b...)
	for off := 0; off+xtea.BlockSize <= len(out); off += xtea.BlockSize {
		c.Encrypt(out[off:off+xtea.BlockSize], out[off:off+xtea.BlockSize])
	}
	return out, nil
}
