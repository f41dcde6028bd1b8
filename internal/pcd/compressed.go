package pcd

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// compressedHeaderSize is the two little-endian uint32 sizes that precede a
// binary_compressed block: compressed size, then uncompressed size.
const compressedHeaderSize = 8

// decodeCompressed reads one binary_compressed block. The inflated buffer
// is column-major: all values of the first column, then all values of the
// second, in layout order.
func decodeCompressed(r io.Reader, s *Schema, layout Layout, c Compressor) (*RecordSet, error) {
	var hdr [compressedHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: missing compressed size header", ErrTruncated)
	}
	compressedSize := binary.LittleEndian.Uint32(hdr[0:4])
	uncompressedSize := binary.LittleEndian.Uint32(hdr[4:8])

	need, err := layout.PayloadSize(s.Points)
	if err != nil {
		return nil, err
	}
	if int64(uncompressedSize) < int64(need) {
		return nil, fmt.Errorf("%w: header declares %d uncompressed bytes, layout needs %d",
			ErrDecompression, uncompressedSize, need)
	}

	compressed, err := io.ReadAll(io.LimitReader(r, int64(compressedSize)))
	if err != nil {
		return nil, fmt.Errorf("read compressed block: %w", err)
	}
	if len(compressed) < int(compressedSize) {
		return nil, fmt.Errorf("%w: compressed block has %d bytes, header declares %d",
			ErrTruncated, len(compressed), compressedSize)
	}

	var buf []byte
	if compressedSize == uncompressedSize {
		// Equal sizes are either an LZF stream that did not shrink, as
		// other writers emit, or a block EncodeCompressed stored raw.
		if out, err := c.Decompress(compressed, int(uncompressedSize)); err == nil && len(out) == int(uncompressedSize) {
			buf = out
		} else {
			diagf("binary_compressed: %d byte block does not inflate, reading it raw", compressedSize)
			buf = compressed
		}
	} else {
		buf, err = c.Decompress(compressed, int(uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
		}
	}
	if len(buf) != int(uncompressedSize) {
		return nil, fmt.Errorf("%w: expected %d bytes after decompression, got %d",
			ErrDecompression, uncompressedSize, len(buf))
	}
	diagf("binary_compressed: %d -> %d bytes", compressedSize, uncompressedSize)

	columns := make([]*Column, len(layout))
	offset := 0
	for i, spec := range layout {
		n := s.Points * spec.Type.Size()
		if offset+n > len(buf) {
			return nil, fmt.Errorf("%w: column %s needs bytes %d..%d of a %d byte block",
				ErrDecompression, spec.Name, offset, offset+n, len(buf))
		}
		col, err := decodeColumn(spec, buf[offset:offset+n], s.Points)
		if err != nil {
			return nil, err
		}
		columns[i] = col
		offset += n
		tracef("binary_compressed: column %s %v %d bytes", spec.Name, spec.Type, n)
	}
	if offset != len(buf) {
		opsf("binary_compressed: %d trailing bytes after last column", len(buf)-offset)
	}
	return NewRecordSet(columns...)
}

// EncodeCompressed writes rs as a binary_compressed block: the 8-byte size
// header followed by the compressed column-major buffer. When the
// compressor cannot shrink the buffer it is stored raw and both sizes are
// equal. A nil Compressor selects LZF.
func EncodeCompressed(w io.Writer, rs *RecordSet, s *Schema, c Compressor) error {
	layout, err := s.Layout()
	if err != nil {
		return err
	}
	if err := rs.checkLayout(layout, s.Points); err != nil {
		return err
	}
	if c == nil {
		c = LZF
	}

	raw := make([]byte, 0, layout.Stride()*s.Points)
	for _, col := range rs.columns {
		if raw, err = col.appendBytes(raw); err != nil {
			return err
		}
	}
	if len(raw) > math.MaxUint32 {
		return fmt.Errorf("%w: payload of %d bytes exceeds the 32-bit size field", ErrSchema, len(raw))
	}

	payload, ok := c.Compress(raw)
	if !ok || len(payload) >= len(raw) {
		diagf("binary_compressed: %d bytes not compressible, storing raw", len(raw))
		payload = raw
	}

	var hdr [compressedHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(raw)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write compressed header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write compressed payload: %w", err)
	}
	return nil
}
