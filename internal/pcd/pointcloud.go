// Package pcd reads and writes Point Cloud Data (PCD) 0.7 files.
//
// A file is a text header followed by a payload in one of three encodings:
// ascii, binary (row-major packed records) or binary_compressed (an LZF
// block holding a column-major buffer). Load parses any of the three into a
// columnar RecordSet; Save always writes binary_compressed.
//
//	pc, err := pcd.LoadFile(nil, "scan.pcd")
//	x, err := pcd.Values[float32](pc.Column("x"))
//
// Columns are typed Go slices. Fields with COUNT > 1 are flattened into
// columns named field_0000, field_0001, ...
package pcd

import (
	"bufio"
	"fmt"
	"io"

	"github.com/banshee-data/pcdkit/internal/fsutil"
)

// PointCloud pairs a schema with its decoded record set.
type PointCloud struct {
	Schema *Schema
	Data   *RecordSet
}

// Option configures Load and Save.
type Option func(*options)

type options struct {
	compressor Compressor
}

// WithCompressor replaces the LZF compressor, mainly for tests.
func WithCompressor(c Compressor) Option {
	return func(o *options) { o.compressor = c }
}

func buildOptions(opts []Option) options {
	o := options{compressor: LZF}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New pairs a schema and record set after checking that they agree.
func New(s *Schema, rs *RecordSet) (*PointCloud, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	layout, err := s.Layout()
	if err != nil {
		return nil, err
	}
	if err := rs.checkLayout(layout, s.Points); err != nil {
		return nil, err
	}
	return &PointCloud{Schema: s, Data: rs}, nil
}

// Load reads a complete PCD stream: header, then payload.
func Load(r io.Reader, opts ...Option) (*PointCloud, error) {
	o := buildOptions(opts)
	br := bufio.NewReader(r)

	s, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	rs, err := Decode(br, s, o.compressor)
	if err != nil {
		return nil, err
	}
	return &PointCloud{Schema: s, Data: rs}, nil
}

// LoadFile opens path on fsys and loads it. A nil fsys uses the OS.
func LoadFile(fsys fsutil.FileSystem, path string, opts ...Option) (*PointCloud, error) {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pc, err := Load(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	diagf("loaded %s: %d points, %d columns", path, pc.Count(), len(pc.Data.Columns()))
	return pc, nil
}

// Save writes the cloud as binary_compressed. The schema's DATA value is
// set to binary_compressed before the header is written, whatever it was.
func (pc *PointCloud) Save(w io.Writer, opts ...Option) error {
	o := buildOptions(opts)

	layout, err := pc.Schema.Layout()
	if err != nil {
		return err
	}
	if err := pc.Data.checkLayout(layout, pc.Schema.Points); err != nil {
		return err
	}

	pc.Schema.Data = BinaryCompressed
	if _, err := io.WriteString(w, pc.Schema.ComposeHeader()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return EncodeCompressed(w, pc.Data, pc.Schema, o.compressor)
}

// SaveFile writes the cloud to path on fsys. A nil fsys uses the OS.
func (pc *PointCloud) SaveFile(fsys fsutil.FileSystem, path string, opts ...Option) (err error) {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := pc.Save(bw, opts...); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	diagf("saved %s: %d points", path, pc.Count())
	return nil
}

// Fields returns the header field names (not the expanded column names).
func (pc *PointCloud) Fields() []string {
	return append([]string(nil), pc.Schema.Fields...)
}

// Types returns the scalar type of each header field.
func (pc *PointCloud) Types() []ScalarType {
	return pc.Schema.Types()
}

// Count returns the number of points.
func (pc *PointCloud) Count() int {
	return pc.Schema.Points
}

// Column returns the named layout column, or nil.
func (pc *PointCloud) Column(name string) *Column {
	return pc.Data.Column(name)
}

// Columns returns all layout columns in order.
func (pc *PointCloud) Columns() []*Column {
	return pc.Data.Columns()
}
