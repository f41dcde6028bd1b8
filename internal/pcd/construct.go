package pcd

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// FromPoints builds an unorganized cloud (height 1) from in-memory data.
//
// points is either a rectangular matrix with one value per layout column
// ([][]float64, [][]float32 or *mat.Dense, one row per point), or a
// sequence of per-column slices ([]any of typed slices, or []*Column).
// Values are converted to the declared column types. counts may be nil.
func FromPoints(points any, fields []string, types []ScalarType, counts []int) (*PointCloud, error) {
	n, err := pointCount(points)
	if err != nil {
		return nil, err
	}
	s, err := NewSchema(fields, types, counts, n, 1)
	if err != nil {
		return nil, err
	}
	layout, err := s.Layout()
	if err != nil {
		return nil, err
	}

	var columns []*Column
	switch p := points.(type) {
	case [][]float64:
		columns, err = columnsFromRows(layout, p)
	case [][]float32:
		columns, err = columnsFromRows(layout, p)
	case *mat.Dense:
		columns, err = columnsFromDense(layout, p)
	case []*Column:
		src := make([]any, len(p))
		for i, c := range p {
			if c == nil {
				return nil, fmt.Errorf("%w: column %d is nil", ErrInvalidInput, i)
			}
			src[i] = c.data
		}
		columns, err = columnsFromSlices(layout, src, n)
	case []any:
		columns, err = columnsFromSlices(layout, p, n)
	}
	if err != nil {
		return nil, err
	}

	rs, err := NewRecordSet(columns...)
	if err != nil {
		return nil, err
	}
	return &PointCloud{Schema: s, Data: rs}, nil
}

func pointCount(points any) (int, error) {
	switch p := points.(type) {
	case [][]float64:
		return len(p), nil
	case [][]float32:
		return len(p), nil
	case *mat.Dense:
		if p == nil {
			return 0, fmt.Errorf("%w: nil matrix", ErrInvalidInput)
		}
		r, _ := p.Dims()
		return r, nil
	case []*Column:
		if len(p) == 0 || p[0] == nil {
			return 0, fmt.Errorf("%w: no columns", ErrInvalidInput)
		}
		return p[0].Len(), nil
	case []any:
		if len(p) == 0 {
			return 0, fmt.Errorf("%w: no columns", ErrInvalidInput)
		}
		c, err := convertColumn("0", Float64, p[0])
		if err != nil {
			return 0, err
		}
		return c.Len(), nil
	}
	return 0, fmt.Errorf("%w: expected a matrix or a sequence of columns, got %T", ErrInvalidInput, points)
}

func columnsFromRows[T float32 | float64](layout Layout, rows [][]T) ([]*Column, error) {
	for i, row := range rows {
		if len(row) != len(layout) {
			return nil, fmt.Errorf("%w: row %d has %d values, layout has %d columns",
				ErrInvalidInput, i, len(row), len(layout))
		}
	}
	columns := make([]*Column, len(layout))
	for j, spec := range layout {
		vals := make([]T, len(rows))
		for i, row := range rows {
			vals[i] = row[j]
		}
		c, err := convertColumn(spec.Name, spec.Type, vals)
		if err != nil {
			return nil, err
		}
		columns[j] = c
	}
	return columns, nil
}

func columnsFromDense(layout Layout, m *mat.Dense) ([]*Column, error) {
	_, cols := m.Dims()
	if cols != len(layout) {
		return nil, fmt.Errorf("%w: matrix has %d columns, layout has %d", ErrInvalidInput, cols, len(layout))
	}
	columns := make([]*Column, len(layout))
	for j, spec := range layout {
		c, err := convertColumn(spec.Name, spec.Type, mat.Col(nil, j, m))
		if err != nil {
			return nil, err
		}
		columns[j] = c
	}
	return columns, nil
}

func columnsFromSlices(layout Layout, src []any, n int) ([]*Column, error) {
	if len(src) != len(layout) {
		return nil, fmt.Errorf("%w: got %d columns, layout has %d", ErrInvalidInput, len(src), len(layout))
	}
	columns := make([]*Column, len(layout))
	for j, spec := range layout {
		c, err := convertColumn(spec.Name, spec.Type, src[j])
		if err != nil {
			return nil, err
		}
		if c.Len() != n {
			return nil, fmt.Errorf("%w: column %q has %d values, want %d", ErrInvalidInput, spec.Name, c.Len(), n)
		}
		columns[j] = c
	}
	return columns, nil
}
