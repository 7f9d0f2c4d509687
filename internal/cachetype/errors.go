package cachetype

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for cache operations.
var (
	// ErrCorruptStore is returned when a sector chain is inconsistent.
	ErrCorruptStore = errors.New("jagcache: corrupt store")

	// ErrUnknownCompression is returned when a container names an unknown codec.
	ErrUnknownCompression = errors.New("jagcache: unknown compression")

	// ErrLengthMismatch is returned when a container's declared lengths do not
	// match its contents.
	ErrLengthMismatch = errors.New("jagcache: length mismatch")

	// ErrIndexNotFound is returned when an index is not present in the store.
	ErrIndexNotFound = errors.New("jagcache: index not found")

	// ErrArchiveNotFound is returned when an archive is not present in an index.
	ErrArchiveNotFound = errors.New("jagcache: archive not found")

	// ErrMalformedIndex is returned when a reference table cannot be parsed.
	ErrMalformedIndex = errors.New("jagcache: malformed index")

	// ErrMalformedGroup is returned when a group's size table overruns its buffer.
	ErrMalformedGroup = errors.New("jagcache: malformed group")

	// ErrChecksumMismatch is returned when a container CRC does not match the
	// index metadata.
	ErrChecksumMismatch = errors.New("jagcache: checksum mismatch")

	// ErrUnknownOpcode is returned when a record contains an unrecognized field tag.
	ErrUnknownOpcode = errors.New("jagcache: unknown opcode")

	// ErrUnexpectedEOF is returned when a record ends in the middle of a field.
	ErrUnexpectedEOF = errors.New("jagcache: unexpected end of record")

	// ErrMalformedRecord is returned when a field value violates its encoding.
	ErrMalformedRecord = errors.New("jagcache: malformed record")

	// ErrDecompression is returned when a compressed payload cannot be inflated.
	ErrDecompression = errors.New("jagcache: decompression failed")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("jagcache: size overflow")

	// ErrNotLoaded is returned when index metadata is used before it is loaded.
	ErrNotLoaded = errors.New("jagcache: store not loaded")
)

// LocationError records where in the store a structural fault was found.
// Fields that do not apply are -1.
type LocationError struct {
	Index   int
	Archive int
	File    int
	Offset  int
	Err     error
}

// Locate wraps err with location information. A nil err returns nil.
func Locate(err error, index, archive, file, offset int) error {
	if err == nil {
		return nil
	}
	return &LocationError{Index: index, Archive: archive, File: file, Offset: offset, Err: err}
}

// Relocate fills in the location fields of err that are still unknown. Errors
// that are not a *LocationError are wrapped as by Locate with offset -1.
func Relocate(err error, index, archive, file int) error {
	if err == nil {
		return nil
	}
	var le *LocationError
	if !errors.As(err, &le) {
		return Locate(err, index, archive, file, -1)
	}
	out := *le
	if out.Index < 0 {
		out.Index = index
	}
	if out.Archive < 0 {
		out.Archive = archive
	}
	if out.File < 0 {
		out.File = file
	}
	return &out
}

func (e *LocationError) Error() string {
	var b strings.Builder
	if e.Index >= 0 {
		fmt.Fprintf(&b, "index %d ", e.Index)
	}
	if e.Archive >= 0 {
		fmt.Fprintf(&b, "archive %d ", e.Archive)
	}
	if e.File >= 0 {
		fmt.Fprintf(&b, "file %d ", e.File)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, "offset %d ", e.Offset)
	}
	if b.Len() == 0 {
		return e.Err.Error()
	}
	return strings.TrimSuffix(b.String(), " ") + ": " + e.Err.Error()
}

func (e *LocationError) Unwrap() error { return e.Err }
