package pcd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// SupportedVersion is the only PCD version this package reads or writes.
const SupportedVersion = "0.7"

// Encoding is the payload encoding named on the DATA line.
type Encoding string

const (
	ASCII            Encoding = "ascii"
	Binary           Encoding = "binary"
	BinaryCompressed Encoding = "binary_compressed"
)

// legacyBinaryCompressed is what the underscore repair in ParseHeader turns
// "binary_compressed" into; it is accepted as an alias.
const legacyBinaryCompressed Encoding = "binaryscompressed"

// NormalizeEncoding maps legacy spellings onto the canonical values.
// Unknown values are returned unchanged so validation can reject them.
func NormalizeEncoding(e Encoding) Encoding {
	if e == legacyBinaryCompressed {
		return BinaryCompressed
	}
	return e
}

// Valid reports whether e is one of the three recognized encodings.
func (e Encoding) Valid() bool {
	switch e {
	case ASCII, Binary, BinaryCompressed:
		return true
	}
	return false
}

// DefaultViewpoint is the identity pose: translation 0,0,0 and quaternion
// w=1, x=y=z=0.
var DefaultViewpoint = []float64{0, 0, 0, 1, 0, 0, 0}

// Schema is a validated PCD header. FIELDS, SIZE, TYPE and COUNT are kept
// as parallel slices in header order.
type Schema struct {
	Version   string
	Fields    []string
	Size      []int
	Type      []string
	Count     []int
	Width     int
	Height    int
	Points    int
	Viewpoint []float64
	Data      Encoding
}

// NewSchema builds and validates a schema for an unorganized or organized
// cloud. counts may be nil, meaning one element per field.
func NewSchema(fields []string, types []ScalarType, counts []int, width, height int) (*Schema, error) {
	if counts == nil {
		counts = make([]int, len(fields))
		for i := range counts {
			counts[i] = 1
		}
	}
	if len(types) != len(fields) {
		return nil, fmt.Errorf("%w: %d fields but %d types", ErrSchema, len(fields), len(types))
	}

	s := &Schema{
		Fields: append([]string(nil), fields...),
		Size:   make([]int, len(types)),
		Type:   make([]string, len(types)),
		Count:  append([]int(nil), counts...),
		Width:  width,
		Height: height,
		Points: width * height,
	}
	for i, t := range types {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: field %q has invalid scalar type %v", ErrSchema, fields[i], t)
		}
		s.Type[i] = t.Tag()
		s.Size[i] = t.Size()
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) applyDefaults() {
	if s.Version == "" {
		s.Version = SupportedVersion
	}
	if s.Height == 0 {
		s.Height = 1
	}
	if s.Viewpoint == nil {
		s.Viewpoint = append([]float64(nil), DefaultViewpoint...)
	}
	if s.Data == "" {
		s.Data = BinaryCompressed
	}
	s.Data = NormalizeEncoding(s.Data)
}

// Validate checks every header invariant and returns the first violation.
func (s *Schema) Validate() error {
	if s.Version != SupportedVersion {
		return fmt.Errorf("%w: version %q is not supported, only %s", ErrSchema, s.Version, SupportedVersion)
	}
	if s.Points <= 0 {
		return fmt.Errorf("%w: number of points must be greater than zero, got %d", ErrSchema, s.Points)
	}
	if !NormalizeEncoding(s.Data).Valid() {
		return fmt.Errorf("%w: %q (want ascii, binary or binary_compressed)", ErrUnsupportedEncoding, s.Data)
	}
	n := len(s.Fields)
	if n == 0 {
		return fmt.Errorf("%w: no fields", ErrSchema)
	}
	if len(s.Size) != n || len(s.Type) != n || len(s.Count) != n {
		return fmt.Errorf("%w: FIELDS/SIZE/TYPE/COUNT lengths differ (%d/%d/%d/%d)",
			ErrSchema, n, len(s.Size), len(s.Type), len(s.Count))
	}
	for i, name := range s.Fields {
		if _, err := LookupScalarType(s.Type[i], s.Size[i]); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		if s.Count[i] < 1 {
			return fmt.Errorf("%w: field %q has count %d", ErrSchema, name, s.Count[i])
		}
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: width and height must be positive, got %dx%d", ErrSchema, s.Width, s.Height)
	}
	if s.Width > math.MaxInt/s.Height || s.Width*s.Height != s.Points {
		return fmt.Errorf("%w: points %d != width %d * height %d", ErrSchema, s.Points, s.Width, s.Height)
	}
	if len(s.Viewpoint) != 7 {
		return fmt.Errorf("%w: viewpoint needs 7 values, got %d", ErrSchema, len(s.Viewpoint))
	}
	return nil
}

// Clone returns a deep copy of s.
func (s *Schema) Clone() *Schema {
	c := *s
	c.Fields = append([]string(nil), s.Fields...)
	c.Size = append([]int(nil), s.Size...)
	c.Type = append([]string(nil), s.Type...)
	c.Count = append([]int(nil), s.Count...)
	c.Viewpoint = append([]float64(nil), s.Viewpoint...)
	return &c
}

// Types returns the scalar type of each header field.
func (s *Schema) Types() []ScalarType {
	out := make([]ScalarType, len(s.Fields))
	for i := range s.Fields {
		out[i], _ = LookupScalarType(s.Type[i], s.Size[i])
	}
	return out
}

// headerPattern splits "KEYWORD value value ..." lines. Signs are part of
// the value class so negative viewpoints and exponents survive.
var headerPattern = regexp.MustCompile(`^(\w+)\s+([\w\s.+-]+)`)

// repairUnderscores rewrites the first underscore in line to 's' and the
// second to 'm'. Some producers emitted keywords with those bytes corrupted;
// this is a compatibility shim, not part of the header grammar.
func repairUnderscores(line string) string {
	line = strings.Replace(line, "_", "s", 1)
	return strings.Replace(line, "_", "m", 1)
}

// ParseHeader parses raw header lines, including the terminating DATA line,
// into a validated schema.
func ParseHeader(lines []string) (*Schema, error) {
	s := &Schema{}
	seen := make(map[string]bool)

	for lineNo, line := range lines {
		if strings.HasPrefix(line, "#") || len(line) < 2 {
			continue
		}
		line = repairUnderscores(line)

		m := headerPattern.FindStringSubmatch(line)
		if m == nil {
			tracef("header line %d ignored: %q", lineNo+1, line)
			continue
		}
		key := strings.ToLower(m[1])
		values := strings.Fields(m[2])
		if len(values) == 0 {
			continue
		}

		var err error
		switch key {
		case "version":
			s.Version = values[0]
		case "data":
			s.Data = Encoding(values[0])
		case "width":
			s.Width, err = parseInt(key, values[0])
		case "height":
			s.Height, err = parseInt(key, values[0])
		case "points":
			s.Points, err = parseInt(key, values[0])
		case "fields":
			s.Fields = values
		case "type":
			s.Type = values
		case "size":
			s.Size, err = parseInts(key, values)
		case "count":
			s.Count, err = parseInts(key, values)
		case "viewpoint":
			s.Viewpoint, err = parseFloats(key, values)
		default:
			tracef("header keyword %q ignored", m[1])
			continue
		}
		if err != nil {
			return nil, err
		}
		seen[key] = true
	}

	for _, key := range []string{"fields", "size", "type", "count", "width", "points"} {
		if !seen[key] {
			return nil, fmt.Errorf("%w: missing %s", ErrFormat, strings.ToUpper(key))
		}
	}

	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	diagf("parsed header: %d fields, %d points, data=%s", len(s.Fields), s.Points, s.Data)
	return s, nil
}

func parseInt(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s value %q is not an integer", ErrFormat, strings.ToUpper(key), v)
	}
	return n, nil
}

func parseInts(key string, values []string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		n, err := parseInt(key, v)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func parseFloats(key string, values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s value %q is not a number", ErrFormat, strings.ToUpper(key), v)
		}
		out[i] = f
	}
	return out, nil
}

// ComposeHeader renders the schema as the ten header lines, in the fixed
// order VERSION FIELDS SIZE TYPE COUNT WIDTH HEIGHT VIEWPOINT POINTS DATA,
// each newline terminated.
func (s *Schema) ComposeHeader() string {
	var b strings.Builder
	line := func(key string, values ...string) {
		b.WriteString(key)
		for _, v := range values {
			b.WriteByte(' ')
			b.WriteString(v)
		}
		b.WriteByte('\n')
	}

	line("VERSION", s.Version)
	line("FIELDS", s.Fields...)
	line("SIZE", itoas(s.Size)...)
	line("TYPE", s.Type...)
	line("COUNT", itoas(s.Count)...)
	line("WIDTH", strconv.Itoa(s.Width))
	line("HEIGHT", strconv.Itoa(s.Height))
	vp := make([]string, len(s.Viewpoint))
	for i, v := range s.Viewpoint {
		vp[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	line("VIEWPOINT", vp...)
	line("POINTS", strconv.Itoa(s.Points))
	line("DATA", string(s.Data))
	return b.String()
}

func itoas(vs []int) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = strconv.Itoa(v)
	}
	return out
}

// maxHeaderLines bounds the scan for the DATA line so a non-PCD input fails
// quickly instead of being consumed as header text.
const maxHeaderLines = 4096

// ReadHeaderLines reads trimmed lines from r up to and including the first
// line that starts with DATA. r is left positioned at the first payload byte.
func ReadHeaderLines(r *bufio.Reader) ([]string, error) {
	var lines []string
	for len(lines) < maxHeaderLines {
		raw, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: %w", err)
		}
		if raw == "" && errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: reached end of input before DATA line", ErrFormat)
		}
		line := strings.TrimSpace(raw)
		lines = append(lines, line)
		if strings.HasPrefix(line, "DATA") {
			return lines, nil
		}
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: reached end of input before DATA line", ErrFormat)
		}
	}
	return nil, fmt.Errorf("%w: no DATA line within %d lines", ErrFormat, maxHeaderLines)
}

// ReadHeader reads and parses the header from r, leaving r positioned at
// the payload.
func ReadHeader(r *bufio.Reader) (*Schema, error) {
	lines, err := ReadHeaderLines(r)
	if err != nil {
		return nil, err
	}
	return ParseHeader(lines)
}
