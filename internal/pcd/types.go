package pcd

import "fmt"

// ScalarType is the concrete element type of a column.
type ScalarType uint8

const (
	Invalid ScalarType = iota
	Uint8
	Uint16
	Uint32
	Uint64
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
)

// Type tags as written in the TYPE header line.
const (
	TagUnsigned = "U"
	TagSigned   = "I"
	TagFloat    = "F"
)

type typeKey struct {
	tag  string
	size int
}

// typeTable is the single source for both directions of the tag/size
// mapping. Float is only valid at 4 and 8 bytes.
var typeTable = map[typeKey]ScalarType{
	{TagUnsigned, 1}: Uint8,
	{TagUnsigned, 2}: Uint16,
	{TagUnsigned, 4}: Uint32,
	{TagUnsigned, 8}: Uint64,
	{TagSigned, 1}:   Int8,
	{TagSigned, 2}:   Int16,
	{TagSigned, 4}:   Int32,
	{TagSigned, 8}:   Int64,
	{TagFloat, 4}:    Float32,
	{TagFloat, 8}:    Float64,
}

var reverseTypeTable = func() map[ScalarType]typeKey {
	m := make(map[ScalarType]typeKey, len(typeTable))
	for k, v := range typeTable {
		m[v] = k
	}
	return m
}()

var scalarNames = map[ScalarType]string{
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Float32: "float32",
	Float64: "float64",
}

// LookupScalarType maps a header (tag, size) pair to its scalar type.
func LookupScalarType(tag string, size int) (ScalarType, error) {
	st, ok := typeTable[typeKey{tag, size}]
	if !ok {
		return Invalid, fmt.Errorf("%w: no scalar type for TYPE %q SIZE %d", ErrSchema, tag, size)
	}
	return st, nil
}

// ParseScalarType resolves a Go type name such as "float32".
func ParseScalarType(name string) (ScalarType, error) {
	for st, n := range scalarNames {
		if n == name {
			return st, nil
		}
	}
	return Invalid, fmt.Errorf("%w: unknown scalar type %q", ErrSchema, name)
}

// Valid reports whether t is one of the ten table entries.
func (t ScalarType) Valid() bool {
	_, ok := reverseTypeTable[t]
	return ok
}

// Tag returns the header TYPE tag for t, or "" if t is invalid.
func (t ScalarType) Tag() string {
	return reverseTypeTable[t].tag
}

// Size returns the byte width of t, or 0 if t is invalid.
func (t ScalarType) Size() int {
	return reverseTypeTable[t].size
}

// IsFloat reports whether t is a floating point type.
func (t ScalarType) IsFloat() bool {
	return t == Float32 || t == Float64
}

func (t ScalarType) String() string {
	if n, ok := scalarNames[t]; ok {
		return n
	}
	return fmt.Sprintf("ScalarType(%d)", uint8(t))
}
