package jagcache

import "github.com/meigma/jagcache/internal/cachetype"

// Sentinel errors re-exported from internal/cachetype.
var (
	// ErrCorruptStore is returned when a sector chain is inconsistent.
	ErrCorruptStore = cachetype.ErrCorruptStore

	// ErrUnknownCompression is returned when a container names an unknown codec.
	ErrUnknownCompression = cachetype.ErrUnknownCompression

	// ErrLengthMismatch is returned when a container's declared lengths do not
	// match its contents.
	ErrLengthMismatch = cachetype.ErrLengthMismatch

	// ErrIndexNotFound is returned when an index is not present in the store.
	ErrIndexNotFound = cachetype.ErrIndexNotFound

	// ErrArchiveNotFound is returned when an archive is not present in an index.
	ErrArchiveNotFound = cachetype.ErrArchiveNotFound

	// ErrMalformedIndex is returned when a reference table cannot be parsed.
	ErrMalformedIndex = cachetype.ErrMalformedIndex

	// ErrMalformedGroup is returned when a group's size table overruns its buffer.
	ErrMalformedGroup = cachetype.ErrMalformedGroup

	// ErrChecksumMismatch is returned when an archive's CRC does not match the
	// reference table.
	ErrChecksumMismatch = cachetype.ErrChecksumMismatch

	// ErrUnknownOpcode is returned when a record contains an unrecognized field tag.
	ErrUnknownOpcode = cachetype.ErrUnknownOpcode

	// ErrUnexpectedEOF is returned when a record ends in the middle of a field.
	ErrUnexpectedEOF = cachetype.ErrUnexpectedEOF

	// ErrMalformedRecord is returned when a field value violates its encoding.
	ErrMalformedRecord = cachetype.ErrMalformedRecord

	// ErrDecompression is returned when a compressed payload cannot be inflated.
	ErrDecompression = cachetype.ErrDecompression

	// ErrSizeOverflow is returned when a payload exceeds the configured size limit.
	ErrSizeOverflow = cachetype.ErrSizeOverflow

	// ErrNotLoaded is returned when metadata is queried before Load.
	ErrNotLoaded = cachetype.ErrNotLoaded
)

// LocationError identifies the index, archive, file and byte offset at which a
// structural fault was found. Unknown fields are -1.
type LocationError = cachetype.LocationError
