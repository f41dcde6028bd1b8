package pcd

import (
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/pcdkit/internal/lzf"
)

// Compressor is the block compression primitive behind binary_compressed
// payloads.
type Compressor interface {
	// Compress returns the compressed form of src, or ok=false when src
	// cannot be compressed (for example it is empty or would not shrink).
	Compress(src []byte) (dst []byte, ok bool)

	// Decompress inflates src into at most size bytes and returns what it
	// produced. Callers check the length against size.
	Decompress(src []byte, size int) ([]byte, error)
}

// LZF is the Compressor used by the PCD format.
var LZF Compressor = lzfCompressor{}

type lzfCompressor struct{}

func (lzfCompressor) Compress(src []byte) ([]byte, bool) {
	out, err := lzf.Compress(src)
	if err != nil {
		if !errors.Is(err, lzf.ErrIncompressible) {
			opsf("lzf compress: %v", err)
		}
		return nil, false
	}
	return out, true
}

func (lzfCompressor) Decompress(src []byte, size int) ([]byte, error) {
	return lzf.Decompress(src, size)
}

// Decode reads the payload described by s from r. r must be positioned at
// the first payload byte. A nil Compressor selects LZF.
func Decode(r io.Reader, s *Schema, c Compressor) (*RecordSet, error) {
	layout, err := s.Layout()
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = LZF
	}

	switch NormalizeEncoding(s.Data) {
	case ASCII:
		return decodeASCII(r, s, layout)
	case Binary:
		return decodeBinary(r, s, layout)
	case BinaryCompressed:
		return decodeCompressed(r, s, layout, c)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, s.Data)
	}
}
