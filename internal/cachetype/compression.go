// Package cachetype defines shared types used across the jagcache package and
// its internal packages. This avoids circular imports between jagcache and the
// storage, container and index layers.
package cachetype

// Compression identifies the codec used inside a container envelope.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionBzip2
	CompressionGzip
)

// Valid reports whether c is a codec the container format defines.
func (c Compression) Valid() bool {
	return c <= CompressionGzip
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionBzip2:
		return "bzip2"
	case CompressionGzip:
		return "gzip"
	default:
		return "unknown"
	}
}
