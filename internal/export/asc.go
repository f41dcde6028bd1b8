package export

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/banshee-data/pcdkit/internal/fsutil"
	"github.com/banshee-data/pcdkit/internal/pcd"
)

// ASCOptions controls ASC output.
type ASCOptions struct {
	// Precision is the number of digits after the point for float columns.
	// Negative means the shortest exact representation.
	Precision int

	// Extra lists the columns written after X Y Z. Nil means every
	// remaining column in layout order; empty means none.
	Extra []string

	// Dir and FS locate ExportASC output. Defaults: DefaultDir on the OS.
	Dir string
	FS  fsutil.FileSystem
}

// DefaultASCOptions matches what CloudCompare shows by default.
func DefaultASCOptions() ASCOptions {
	return ASCOptions{Precision: 6}
}

// WriteASC writes pc as CloudCompare-compatible ASC text: two comment
// lines, then one space-separated row per point.
func WriteASC(w io.Writer, pc *pcd.PointCloud, opts ASCOptions) error {
	cols, err := requireColumns(pc, "x", "y", "z")
	if err != nil {
		return err
	}
	if pc.Count() == 0 {
		return ErrEmpty
	}

	extra := opts.Extra
	if extra == nil {
		for _, name := range pc.Data.Names() {
			if name != "x" && name != "y" && name != "z" {
				extra = append(extra, name)
			}
		}
	}
	more, err := requireColumns(pc, extra...)
	if err != nil {
		return err
	}
	cols = append(cols, more...)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Exported %d points\n", pc.Count())
	fmt.Fprintf(bw, "# Format: X Y Z%s\n", formatSuffix(extra))

	var line []byte
	for i := 0; i < pc.Count(); i++ {
		line = line[:0]
		for j, c := range cols {
			if j > 0 {
				line = append(line, ' ')
			}
			line = c.AppendValue(line, i, opts.Precision)
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func formatSuffix(extra []string) string {
	if len(extra) == 0 {
		return ""
	}
	return " " + strings.Join(extra, " ")
}

// ExportASC writes pc to name inside opts.Dir and returns the path used.
// Only the base of name is kept, so exports cannot leave the directory.
func ExportASC(pc *pcd.PointCloud, name string, opts ASCOptions) (string, error) {
	path, err := writeUnder(opts.FS, opts.Dir, name, func(w io.Writer) error {
		return WriteASC(w, pc, opts)
	})
	if err != nil {
		return "", err
	}
	log.Printf("Exported %d points to %s", pc.Count(), path)
	return path, nil
}
