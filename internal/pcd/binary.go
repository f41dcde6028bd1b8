package pcd

import (
	"fmt"
	"io"
)

// decodeBinary reads s.Points packed rows. Each row is the layout's columns
// back to back, little-endian, with no padding. The buffer grows with the
// bytes actually present, so a header that overstates POINTS fails as
// truncated instead of allocating the declared size up front.
func decodeBinary(r io.Reader, s *Schema, layout Layout) (*RecordSet, error) {
	stride := layout.Stride()
	need, err := layout.PayloadSize(s.Points)
	if err != nil {
		return nil, err
	}
	buf, err := io.ReadAll(io.LimitReader(r, int64(need)))
	if err != nil {
		return nil, fmt.Errorf("read binary payload: %w", err)
	}
	if len(buf) < need {
		return nil, fmt.Errorf("%w: binary payload has %d bytes, want %d (%d points x %d bytes)",
			ErrTruncated, len(buf), need, s.Points, stride)
	}

	columns := make([]*Column, len(layout))
	for i, spec := range layout {
		size := spec.Type.Size()
		gathered := make([]byte, s.Points*size)
		for row := 0; row < s.Points; row++ {
			src := row*stride + spec.Offset
			copy(gathered[row*size:(row+1)*size], buf[src:src+size])
		}
		col, err := decodeColumn(spec, gathered, s.Points)
		if err != nil {
			return nil, err
		}
		columns[i] = col
		tracef("binary: column %s %v offset=%d", spec.Name, spec.Type, spec.Offset)
	}
	return NewRecordSet(columns...)
}
