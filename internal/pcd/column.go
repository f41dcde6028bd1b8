package pcd

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// Scalar is the set of Go element types a column can hold.
type Scalar interface {
	uint8 | uint16 | uint32 | uint64 | int8 | int16 | int32 | int64 | float32 | float64
}

// Column is one named, homogeneous column of a record set. The backing
// slice is owned by the column; accessors return it without copying, and
// callers must treat it as read-only.
type Column struct {
	name string
	typ  ScalarType
	data any
}

// NewColumn wraps values as a column. The slice is not copied.
func NewColumn[T Scalar](name string, values []T) *Column {
	return &Column{name: name, typ: scalarTypeOf[T](), data: values}
}

// Values returns the column's backing slice as []T. It fails if T does not
// match the column's scalar type.
func Values[T Scalar](c *Column) ([]T, error) {
	v, ok := c.data.([]T)
	if !ok {
		return nil, fmt.Errorf("%w: column %q holds %v, not %v", ErrSchema, c.name, c.typ, scalarTypeOf[T]())
	}
	return v, nil
}

func scalarTypeOf[T Scalar]() ScalarType {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case float32:
		return Float32
	default:
		return Float64
	}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the column's scalar type.
func (c *Column) Type() ScalarType { return c.typ }

// Data returns the backing slice as an untyped value ([]float32, []uint16, ...).
func (c *Column) Data() any { return c.data }

// Len returns the number of values in the column.
func (c *Column) Len() int {
	switch v := c.data.(type) {
	case []uint8:
		return len(v)
	case []uint16:
		return len(v)
	case []uint32:
		return len(v)
	case []uint64:
		return len(v)
	case []int8:
		return len(v)
	case []int16:
		return len(v)
	case []int32:
		return len(v)
	case []int64:
		return len(v)
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	}
	return 0
}

// Float64 returns value i converted to float64. 64-bit integers above 2^53
// lose precision.
func (c *Column) Float64(i int) float64 {
	switch v := c.data.(type) {
	case []uint8:
		return float64(v[i])
	case []uint16:
		return float64(v[i])
	case []uint32:
		return float64(v[i])
	case []uint64:
		return float64(v[i])
	case []int8:
		return float64(v[i])
	case []int16:
		return float64(v[i])
	case []int32:
		return float64(v[i])
	case []int64:
		return float64(v[i])
	case []float32:
		return float64(v[i])
	case []float64:
		return v[i]
	}
	return 0
}

// AppendValue appends value i as text. Integers are written plainly; floats
// use prec digits after the point, or the shortest exact form when prec < 0.
func (c *Column) AppendValue(dst []byte, i, prec int) []byte {
	switch v := c.data.(type) {
	case []uint8:
		return strconv.AppendUint(dst, uint64(v[i]), 10)
	case []uint16:
		return strconv.AppendUint(dst, uint64(v[i]), 10)
	case []uint32:
		return strconv.AppendUint(dst, uint64(v[i]), 10)
	case []uint64:
		return strconv.AppendUint(dst, v[i], 10)
	case []int8:
		return strconv.AppendInt(dst, int64(v[i]), 10)
	case []int16:
		return strconv.AppendInt(dst, int64(v[i]), 10)
	case []int32:
		return strconv.AppendInt(dst, int64(v[i]), 10)
	case []int64:
		return strconv.AppendInt(dst, v[i], 10)
	case []float32:
		if prec < 0 {
			return strconv.AppendFloat(dst, float64(v[i]), 'g', -1, 32)
		}
		return strconv.AppendFloat(dst, float64(v[i]), 'f', prec, 32)
	case []float64:
		if prec < 0 {
			return strconv.AppendFloat(dst, v[i], 'g', -1, 64)
		}
		return strconv.AppendFloat(dst, v[i], 'f', prec, 64)
	}
	return dst
}

// appendBytes appends the column's little-endian encoding to dst.
func (c *Column) appendBytes(dst []byte) ([]byte, error) {
	out, err := binary.Append(dst, binary.LittleEndian, c.data)
	if err != nil {
		return dst, fmt.Errorf("encode column %q: %w", c.name, err)
	}
	return out, nil
}

// makeSlice allocates a zeroed slice of n elements of type t.
func makeSlice(t ScalarType, n int) any {
	switch t {
	case Uint8:
		return make([]uint8, n)
	case Uint16:
		return make([]uint16, n)
	case Uint32:
		return make([]uint32, n)
	case Uint64:
		return make([]uint64, n)
	case Int8:
		return make([]int8, n)
	case Int16:
		return make([]int16, n)
	case Int32:
		return make([]int32, n)
	case Int64:
		return make([]int64, n)
	case Float32:
		return make([]float32, n)
	case Float64:
		return make([]float64, n)
	}
	return nil
}

// decodeColumn builds a column of n values from contiguous little-endian
// bytes.
func decodeColumn(spec ColumnSpec, b []byte, n int) (*Column, error) {
	data := makeSlice(spec.Type, n)
	if data == nil {
		return nil, fmt.Errorf("%w: column %q has invalid type", ErrSchema, spec.Name)
	}
	if _, err := binary.Decode(b, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("decode column %q: %w", spec.Name, err)
	}
	return &Column{name: spec.Name, typ: spec.Type, data: data}, nil
}

// parseColumn parses the col-th token of every row as the column's type.
func parseColumn(spec ColumnSpec, rows [][]string, col int) (*Column, error) {
	var (
		data any
		err  error
	)
	switch spec.Type {
	case Uint8:
		data, err = parseTokens(rows, col, parseUintToken[uint8](8))
	case Uint16:
		data, err = parseTokens(rows, col, parseUintToken[uint16](16))
	case Uint32:
		data, err = parseTokens(rows, col, parseUintToken[uint32](32))
	case Uint64:
		data, err = parseTokens(rows, col, parseUintToken[uint64](64))
	case Int8:
		data, err = parseTokens(rows, col, parseIntToken[int8](8))
	case Int16:
		data, err = parseTokens(rows, col, parseIntToken[int16](16))
	case Int32:
		data, err = parseTokens(rows, col, parseIntToken[int32](32))
	case Int64:
		data, err = parseTokens(rows, col, parseIntToken[int64](64))
	case Float32:
		data, err = parseTokens(rows, col, parseFloatToken[float32](32))
	case Float64:
		data, err = parseTokens(rows, col, parseFloatToken[float64](64))
	default:
		return nil, fmt.Errorf("%w: column %q has invalid type", ErrSchema, spec.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: column %q: %v", ErrParse, spec.Name, err)
	}
	return &Column{name: spec.Name, typ: spec.Type, data: data}, nil
}

func parseTokens[T Scalar](rows [][]string, col int, parse func(string) (T, error)) ([]T, error) {
	out := make([]T, len(rows))
	for i, row := range rows {
		v, err := parse(row[col])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseUintToken[T uint8 | uint16 | uint32 | uint64](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseUint(s, 10, bits)
		return T(v), err
	}
}

func parseIntToken[T int8 | int16 | int32 | int64](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseInt(s, 10, bits)
		return T(v), err
	}
}

func parseFloatToken[T float32 | float64](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseFloat(s, bits)
		return T(v), err
	}
}

// convertColumn copies src, a slice of any Scalar type, into a new column of
// type t. Values are converted with Go conversion rules.
func convertColumn(name string, t ScalarType, src any) (*Column, error) {
	var data any
	switch s := src.(type) {
	case []uint8:
		data = castTo(t, s)
	case []uint16:
		data = castTo(t, s)
	case []uint32:
		data = castTo(t, s)
	case []uint64:
		data = castTo(t, s)
	case []int8:
		data = castTo(t, s)
	case []int16:
		data = castTo(t, s)
	case []int32:
		data = castTo(t, s)
	case []int64:
		data = castTo(t, s)
	case []float32:
		data = castTo(t, s)
	case []float64:
		data = castTo(t, s)
	default:
		return nil, fmt.Errorf("%w: column %q has element type %T", ErrInvalidInput, name, src)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: column %q has invalid type", ErrSchema, name)
	}
	return &Column{name: name, typ: t, data: data}, nil
}

func castTo[S Scalar](t ScalarType, src []S) any {
	switch t {
	case Uint8:
		return castSlice[uint8](src)
	case Uint16:
		return castSlice[uint16](src)
	case Uint32:
		return castSlice[uint32](src)
	case Uint64:
		return castSlice[uint64](src)
	case Int8:
		return castSlice[int8](src)
	case Int16:
		return castSlice[int16](src)
	case Int32:
		return castSlice[int32](src)
	case Int64:
		return castSlice[int64](src)
	case Float32:
		return castSlice[float32](src)
	case Float64:
		return castSlice[float64](src)
	}
	return nil
}

func castSlice[D, S Scalar](src []S) []D {
	out := make([]D, len(src))
	for i, v := range src {
		out[i] = D(v)
	}
	return out
}
