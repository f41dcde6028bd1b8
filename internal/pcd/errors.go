package pcd

import "errors"

// Errors returned by the codec. They are always wrapped with context, so
// callers should match with errors.Is.
var (
	// ErrFormat reports a header that cannot be parsed or lacks required keys.
	ErrFormat = errors.New("pcd: malformed header")

	// ErrSchema reports an invalid type/size/count combination, version,
	// point count, or a record set that does not match its schema.
	ErrSchema = errors.New("pcd: invalid schema")

	// ErrParse reports an ascii payload row that cannot be parsed.
	ErrParse = errors.New("pcd: invalid ascii payload")

	// ErrTruncated reports a payload shorter than the header declares.
	ErrTruncated = errors.New("pcd: truncated payload")

	// ErrDecompression reports a compressed block that does not inflate to
	// its declared size.
	ErrDecompression = errors.New("pcd: decompression failed")

	// ErrUnsupportedEncoding reports a DATA value outside ascii, binary and
	// binary_compressed.
	ErrUnsupportedEncoding = errors.New("pcd: unsupported data encoding")

	// ErrInvalidInput reports a construction input of an unsupported shape.
	ErrInvalidInput = errors.New("pcd: unsupported input")
)
