package pcd

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix returns the named columns as a points x len(fields) matrix. With
// no names it uses every layout column. 64-bit integer columns are
// rejected because float64 cannot hold them exactly; read those with
// MatrixOf.
func (pc *PointCloud) Matrix(fields ...string) (*mat.Dense, error) {
	cols, err := pc.selectColumns(fields)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if c.Type() == Int64 || c.Type() == Uint64 {
			return nil, fmt.Errorf("%w: column %q is %v and cannot be represented as float64; use MatrixOf[%v]",
				ErrSchema, c.Name(), c.Type(), c.Type())
		}
	}

	n, m := pc.Data.Len(), len(cols)
	data := make([]float64, n*m)
	for j, c := range cols {
		for i := 0; i < n; i++ {
			data[i*m+j] = c.Float64(i)
		}
	}
	return mat.NewDense(n, m, data), nil
}

// MatrixOf returns the named columns as a row-major points x len(fields)
// slice of T, with no conversion. Every selected column must hold T, so
// 64-bit integer clouds keep their exact values.
func MatrixOf[T Scalar](pc *PointCloud, fields ...string) (data []T, rows, cols int, err error) {
	selected, err := pc.selectColumns(fields)
	if err != nil {
		return nil, 0, 0, err
	}
	values := make([][]T, len(selected))
	for j, c := range selected {
		if values[j], err = Values[T](c); err != nil {
			return nil, 0, 0, err
		}
	}

	rows, cols = pc.Data.Len(), len(selected)
	data = make([]T, rows*cols)
	for j, v := range values {
		for i := 0; i < rows; i++ {
			data[i*cols+j] = v[i]
		}
	}
	return data, rows, cols, nil
}

func (pc *PointCloud) selectColumns(fields []string) ([]*Column, error) {
	if len(fields) == 0 {
		fields = pc.Data.Names()
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no columns to convert", ErrSchema)
	}
	cols := make([]*Column, len(fields))
	for j, name := range fields {
		c := pc.Data.Column(name)
		if c == nil {
			return nil, fmt.Errorf("%w: no column %q", ErrSchema, name)
		}
		cols[j] = c
	}
	return cols, nil
}
