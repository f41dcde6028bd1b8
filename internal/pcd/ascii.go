package pcd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxASCIILine bounds a single ascii row; wide multi-count layouts can
// exceed bufio.Scanner's 64 KiB default.
const maxASCIILine = 16 << 20

// decodeASCII reads s.Points whitespace-delimited rows. Blank lines are
// skipped; anything after the last declared row is ignored.
func decodeASCII(r io.Reader, s *Schema, layout Layout) (*RecordSet, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxASCIILine)

	var rows [][]string
	lineNo := 0
	for len(rows) < s.Points && sc.Scan() {
		lineNo++
		tokens := strings.Fields(sc.Text())
		if len(tokens) == 0 {
			continue
		}
		if len(tokens) != len(layout) {
			return nil, fmt.Errorf("%w: payload line %d has %d values, want %d",
				ErrParse, lineNo, len(tokens), len(layout))
		}
		rows = append(rows, tokens)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ascii payload: %w", err)
	}
	if len(rows) < s.Points {
		return nil, fmt.Errorf("%w: ascii payload has %d rows, header declares %d",
			ErrTruncated, len(rows), s.Points)
	}

	columns := make([]*Column, len(layout))
	for i, spec := range layout {
		col, err := parseColumn(spec, rows, i)
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}
	tracef("ascii: decoded %d rows x %d columns", len(rows), len(columns))
	return NewRecordSet(columns...)
}
