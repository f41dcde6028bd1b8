package pcd

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pcdkit/internal/fsutil"
)

func allTypesCloud(t *testing.T, n int) *PointCloud {
	t.Helper()

	u8 := make([]uint8, n)
	u16 := make([]uint16, n)
	u32 := make([]uint32, n)
	u64 := make([]uint64, n)
	i8 := make([]int8, n)
	i16 := make([]int16, n)
	i32 := make([]int32, n)
	i64 := make([]int64, n)
	f32 := make([]float32, n)
	f64 := make([]float64, n)
	for i := 0; i < n; i++ {
		u8[i] = uint8(i)
		u16[i] = uint16(i * 7)
		u32[i] = uint32(i) * 100003
		u64[i] = math.MaxUint64 - uint64(i)
		i8[i] = int8(i%256 - 128)
		i16[i] = int16(-i)
		i32[i] = int32(i*i) - 5000
		i64[i] = math.MinInt64 + int64(i)
		f32[i] = float32(i%17) * 0.125
		f64[i] = -float64(i) / 3
	}

	s := mustSchema(t,
		[]string{"a", "b", "c", "d", "e", "f", "g", "h", "x", "y"},
		[]ScalarType{Uint8, Uint16, Uint32, Uint64, Int8, Int16, Int32, Int64, Float32, Float64},
		nil, n, 1)
	rs, err := NewRecordSet(
		NewColumn("a", u8), NewColumn("b", u16), NewColumn("c", u32), NewColumn("d", u64),
		NewColumn("e", i8), NewColumn("f", i16), NewColumn("g", i32), NewColumn("h", i64),
		NewColumn("x", f32), NewColumn("y", f64),
	)
	require.NoError(t, err)
	pc, err := New(s, rs)
	require.NoError(t, err)
	return pc
}

func assertSameColumns(t *testing.T, want, got *PointCloud) {
	t.Helper()
	require.Equal(t, want.Data.Names(), got.Data.Names())
	for _, c := range want.Columns() {
		g := got.Column(c.Name())
		require.NotNil(t, g, c.Name())
		assert.Equal(t, c.Type(), g.Type(), c.Name())
		assert.Equal(t, c.Data(), g.Data(), c.Name())
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 7, 1000} {
		pc := allTypesCloud(t, n)

		var buf bytes.Buffer
		require.NoError(t, pc.Save(&buf))

		got, err := Load(&buf)
		require.NoError(t, err)
		assert.Equal(t, n, got.Count())
		assert.Equal(t, BinaryCompressed, got.Schema.Data)
		assertSameColumns(t, pc, got)
	}
}

func TestSaveLoad_MultiCountAndOrganized(t *testing.T) {
	t.Parallel()

	s := mustSchema(t, []string{"x", "normal"}, []ScalarType{Float32, Float32}, []int{1, 3}, 3, 2)
	cols := []*Column{NewColumn("x", []float32{1, 2, 3, 4, 5, 6})}
	for k := 0; k < 3; k++ {
		vals := make([]float32, 6)
		for i := range vals {
			vals[i] = float32(k*10 + i)
		}
		cols = append(cols, NewColumn([]string{"normal_0000", "normal_0001", "normal_0002"}[k], vals))
	}
	rs, err := NewRecordSet(cols...)
	require.NoError(t, err)
	pc, err := New(s, rs)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pc.Save(&buf))
	got, err := Load(&buf)
	require.NoError(t, err)

	assert.Equal(t, 3, got.Schema.Width)
	assert.Equal(t, 2, got.Schema.Height)
	assert.Equal(t, []int{1, 3}, got.Schema.Count)
	assertSameColumns(t, pc, got)
}

func TestSave_ForcesCompressedEncoding(t *testing.T) {
	t.Parallel()

	pc := allTypesCloud(t, 3)
	pc.Schema.Data = ASCII

	var buf bytes.Buffer
	require.NoError(t, pc.Save(&buf))
	assert.Equal(t, BinaryCompressed, pc.Schema.Data)
	assert.Contains(t, buf.String(), "\nDATA binary_compressed\n")
}

func TestSave_NaNSurvives(t *testing.T) {
	t.Parallel()

	nan := float32(math.NaN())
	pc, err := FromPoints([]any{[]float32{nan, 1}}, []string{"x"}, []ScalarType{Float32}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pc.Save(&buf))
	got, err := Load(&buf)
	require.NoError(t, err)

	x, err := Values[float32](got.Column("x"))
	require.NoError(t, err)
	assert.Equal(t, math.Float32bits(nan), math.Float32bits(x[0]))
	assert.Equal(t, float32(1), x[1])
}

func TestSave_WithCompressor(t *testing.T) {
	t.Parallel()

	pc := allTypesCloud(t, 50)
	var buf bytes.Buffer
	require.NoError(t, pc.Save(&buf, WithCompressor(fixedCompressor{})))

	// fixedCompressor never compresses, so the block is stored raw.
	got, err := Load(&buf, WithCompressor(fixedCompressor{err: errBroken}))
	require.NoError(t, err)
	assertSameColumns(t, pc, got)
}

func TestSave_MismatchedRecordSet(t *testing.T) {
	t.Parallel()

	pc := allTypesCloud(t, 2)
	pc.Schema.Points = 3
	pc.Schema.Width = 3
	var buf bytes.Buffer
	assert.ErrorIs(t, pc.Save(&buf), ErrSchema)
	assert.Zero(t, buf.Len())
}

func TestLoad_BinaryFile(t *testing.T) {
	t.Parallel()

	payload := f32Bytes(1, 2, 3, 4, 5, 6)
	pc, err := Load(strings.NewReader(xyzHeader + string(payload)))
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y", "z"}, pc.Fields())
	assert.Equal(t, []ScalarType{Float32, Float32, Float32}, pc.Types())
	assert.Equal(t, 2, pc.Count())
	z, _ := Values[float32](pc.Column("z"))
	assert.Equal(t, []float32{3, 6}, z)
	assert.Len(t, pc.Columns(), 3)
	assert.Nil(t, pc.Column("w"))
}

func TestLoad_ASCIIFile(t *testing.T) {
	t.Parallel()

	h := strings.Replace(xyzHeader, "DATA binary", "DATA ascii", 1)
	pc, err := Load(strings.NewReader(h + "1 2 3\n4 5 6\n"))
	require.NoError(t, err)
	y, _ := Values[float32](pc.Column("y"))
	assert.Equal(t, []float32{2, 5}, y)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := Load(strings.NewReader("not a pcd file"))
	assert.ErrorIs(t, err, ErrFormat)

	_, err = Load(strings.NewReader(xyzHeader + "short"))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestLoadFile_SaveFile(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	pc := allTypesCloud(t, 20)
	require.NoError(t, pc.SaveFile(fsys, "/clouds/a.pcd"))
	assert.True(t, fsys.Exists("/clouds/a.pcd"))

	got, err := LoadFile(fsys, "/clouds/a.pcd")
	require.NoError(t, err)
	assertSameColumns(t, pc, got)

	_, err = LoadFile(fsys, "/clouds/missing.pcd")
	assert.Error(t, err)
}

func TestLoadFile_WrapsPath(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("/bad.pcd", []byte("VERSION 0.7\n"), 0o644))
	_, err := LoadFile(fsys, "/bad.pcd")
	assert.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "/bad.pcd")
}

func TestSave_CompressedHeaderFraming(t *testing.T) {
	t.Parallel()

	pc := allTypesCloud(t, 200)
	var buf bytes.Buffer
	require.NoError(t, pc.Save(&buf))

	raw := buf.Bytes()
	i := bytes.Index(raw, []byte("DATA binary_compressed\n"))
	require.GreaterOrEqual(t, i, 0)
	block := raw[i+len("DATA binary_compressed\n"):]

	compressed := binary.LittleEndian.Uint32(block[0:4])
	uncompressed := binary.LittleEndian.Uint32(block[4:8])
	assert.Equal(t, uint32(200*(1+2+4+8+1+2+4+8+4+8)), uncompressed)
	assert.Equal(t, int(compressed), len(block)-8)
}

// ringBlock is the column-major x/y/z payload of eight float32 points on a
// unit ring at z=1.5, compressed by liblzf's lzf_compress.
var ringBlock = []byte{
	0x06, 0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0x40, 0x03, 0x40, 0x00,
	0x03, 0xbf, 0x00, 0x00, 0x80, 0x20, 0x03, 0x40, 0x07, 0x60, 0x00, 0xc0,
	0x17, 0x20, 0x07, 0xe0, 0x0f, 0x27, 0x00, 0xc0, 0x20, 0x1b, 0xe0, 0x0f,
	0x03, 0x01, 0xc0, 0x3f,
}

func TestLoad_ReferenceCompressedFile(t *testing.T) {
	t.Parallel()

	header := strings.NewReplacer("WIDTH 2", "WIDTH 8", "POINTS 2", "POINTS 8",
		"DATA binary", "DATA binary_compressed").Replace(xyzHeader)
	input := header + string(compressedBlock(uint32(len(ringBlock)), 96, ringBlock))

	pc, err := Load(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 8, pc.Count())

	for name, want := range map[string][]float32{
		"x": {1, 0.5, 0, -0.5, -1, -0.5, 0, 0.5},
		"y": {0, 0.5, 1, 0.5, 0, -0.5, -1, -0.5},
		"z": {1.5, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5},
	} {
		got, err := Values[float32](pc.Column(name))
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}

	// The same block survives a save and reload through this package's
	// compressor.
	var buf bytes.Buffer
	require.NoError(t, pc.Save(&buf))
	again, err := Load(&buf)
	require.NoError(t, err)
	assertSameColumns(t, pc, again)
}
