package nvc

import (
	"fmt"
	"strings"
)

// CompressionType selects how frames are stored in a container.
type CompressionType int32

// Compression types.
const (
	// CompressionNone stores attributes in their source format.
	CompressionNone CompressionType = iota
	// CompressionQuantize packs points into 16 bits per axis relative to
	// the frame bounds and directions into octahedral unorm16 pairs.
	CompressionQuantize
	// CompressionZstd stores attributes losslessly and compresses each
	// frame payload with zstd.
	CompressionZstd
)

// String returns the lower-case compression name.
func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionQuantize:
		return "quantize"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", int32(c))
	}
}

// Valid reports whether c is a known compression type.
func (c CompressionType) Valid() bool {
	return c >= CompressionNone && c <= CompressionZstd
}

// ParseCompressionType parses a compression name case-insensitively.
func ParseCompressionType(s string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "null", "raw":
		return CompressionNone, nil
	case "quantize", "quantise", "quantization", "quantisation":
		return CompressionQuantize, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c CompressionType) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, int32(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CompressionType) UnmarshalText(text []byte) error {
	v, err := ParseCompressionType(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
