package pcd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogWriters(t *testing.T) {
	t.Cleanup(func() { SetLogWriters(nil, nil, nil) })

	var ops, diag, trace bytes.Buffer
	SetLogWriters(&ops, &diag, &trace)

	_, err := ParseHeader(headerLines(xyzHeader))
	require.NoError(t, err)
	assert.Contains(t, diag.String(), "[pcd] ")
	assert.Contains(t, diag.String(), "parsed header: 3 fields, 2 points")

	s := mustSchema(t, []string{"x"}, []ScalarType{Float32}, nil, 1, 1)
	rs, err := NewRecordSet(NewColumn("x", []float32{1}))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, EncodeCompressed(&buf, rs, s, nil))
	assert.Contains(t, diag.String(), "storing raw")

	_, err = Decode(&buf, s, nil)
	require.NoError(t, err)
	assert.Contains(t, trace.String(), "binary_compressed: column x float32")
	assert.Empty(t, ops.String())

	SetLogWriters(nil, nil, nil)
	diag.Reset()
	_, err = ParseHeader(headerLines(xyzHeader))
	require.NoError(t, err)
	assert.Empty(t, diag.String())
	assert.False(t, strings.Contains(trace.String(), "ignored"))
}
