package pcd

import (
	"fmt"
	"math"
)

// MaxColumns bounds the expanded layout. COUNT values beyond it are
// treated as a malformed header rather than allocated.
const MaxColumns = 1 << 20

// ColumnSpec is one scalar column of the flattened row layout.
type ColumnSpec struct {
	Name string
	Type ScalarType
	// Field is the index of the header field the column was expanded from.
	Field int
	// Offset is the byte offset of the column inside a packed binary row.
	Offset int
}

// Layout is the ordered list of columns of a schema, with multi-count
// fields expanded.
type Layout []ColumnSpec

// Layout expands the schema fields into scalar columns. A field with
// COUNT n > 1 becomes columns name_0000 .. name_{n-1}, all sharing the
// field's scalar type.
func (s *Schema) Layout() (Layout, error) {
	total := 0
	for i, field := range s.Fields {
		if s.Count[i] < 1 || s.Count[i] > MaxColumns-total {
			return nil, fmt.Errorf("%w: field %q count %d exceeds %d expanded columns",
				ErrSchema, field, s.Count[i], MaxColumns)
		}
		total += s.Count[i]
	}

	out := make(Layout, 0, total)
	offset := 0
	for i, field := range s.Fields {
		st, err := LookupScalarType(s.Type[i], s.Size[i])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		if s.Count[i] == 1 {
			out = append(out, ColumnSpec{Name: field, Type: st, Field: i, Offset: offset})
			offset += st.Size()
			continue
		}
		for k := 0; k < s.Count[i]; k++ {
			out = append(out, ColumnSpec{
				Name:   fmt.Sprintf("%s_%04d", field, k),
				Type:   st,
				Field:  i,
				Offset: offset,
			})
			offset += st.Size()
		}
	}
	return out, nil
}

// Stride returns the size in bytes of one packed binary row.
func (l Layout) Stride() int {
	n := 0
	for _, c := range l {
		n += c.Type.Size()
	}
	return n
}

// PayloadSize returns points x stride, the size of the packed payload, or
// ErrSchema when the product does not fit in an int.
func (l Layout) PayloadSize(points int) (int, error) {
	stride := l.Stride()
	if points < 0 || (stride > 0 && points > math.MaxInt/stride) {
		return 0, fmt.Errorf("%w: %d points x %d bytes overflows the payload size", ErrSchema, points, stride)
	}
	return points * stride, nil
}

// Names returns the column names in layout order.
func (l Layout) Names() []string {
	out := make([]string, len(l))
	for i, c := range l {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the named column, or -1.
func (l Layout) Index(name string) int {
	for i, c := range l {
		if c.Name == name {
			return i
		}
	}
	return -1
}
