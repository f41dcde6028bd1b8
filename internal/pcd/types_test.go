package pcd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupScalarType_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag  string
		size int
		want ScalarType
	}{
		{"U", 1, Uint8}, {"U", 2, Uint16}, {"U", 4, Uint32}, {"U", 8, Uint64},
		{"I", 1, Int8}, {"I", 2, Int16}, {"I", 4, Int32}, {"I", 8, Int64},
		{"F", 4, Float32}, {"F", 8, Float64},
	}
	for _, tc := range tests {
		got, err := LookupScalarType(tc.tag, tc.size)
		require.NoError(t, err, "%s%d", tc.tag, tc.size)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.tag, got.Tag())
		assert.Equal(t, tc.size, got.Size())
		assert.True(t, got.Valid())
	}
}

func TestLookupScalarType_Rejects(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		tag  string
		size int
	}{{"F", 2}, {"F", 1}, {"U", 3}, {"I", 16}, {"X", 4}, {"f", 4}} {
		_, err := LookupScalarType(tc.tag, tc.size)
		assert.ErrorIs(t, err, ErrSchema, "%s%d", tc.tag, tc.size)
	}
}

func TestScalarType_Names(t *testing.T) {
	t.Parallel()

	for _, st := range []ScalarType{Uint8, Uint16, Uint32, Uint64, Int8, Int16, Int32, Int64, Float32, Float64} {
		got, err := ParseScalarType(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}
	_, err := ParseScalarType("complex64")
	assert.ErrorIs(t, err, ErrSchema)

	assert.False(t, Invalid.Valid())
	assert.Equal(t, "", Invalid.Tag())
	assert.Equal(t, 0, Invalid.Size())
	assert.True(t, Float64.IsFloat())
	assert.False(t, Int32.IsFloat())
}
