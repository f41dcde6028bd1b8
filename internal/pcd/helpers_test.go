package pcd

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, fields []string, types []ScalarType, counts []int, width, height int) *Schema {
	t.Helper()
	s, err := NewSchema(fields, types, counts, width, height)
	require.NoError(t, err)
	return s
}

func f32Bytes(vs ...float32) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

func compressedBlock(compressedSize, uncompressedSize uint32, payload []byte) []byte {
	b := binary.LittleEndian.AppendUint32(nil, compressedSize)
	b = binary.LittleEndian.AppendUint32(b, uncompressedSize)
	return append(b, payload...)
}

// fixedCompressor returns a canned buffer from Decompress and refuses to
// compress.
type fixedCompressor struct {
	out []byte
	err error
}

func (f fixedCompressor) Compress([]byte) ([]byte, bool) { return nil, false }

func (f fixedCompressor) Decompress([]byte, int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

var errBroken = errors.New("broken compressor")
