// Package compression compresses stored draft values.
package compression

import "fmt"

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// None stores values as-is.
type None struct{}

func (None) Compress(data []byte) ([]byte, error)   { return data, nil }
func (None) Decompress(data []byte) ([]byte, error) { return data, nil }

// ForName maps a config value (zstd, gzip, none) to a Compressor.
func ForName(name string) (Compressor, error) {
	switch name {
	case "zstd":
		return ZstdCompressor{}, nil
	case "gzip":
		return GzipCompressor{}, nil
	case "", "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}
