package catalog

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/banshee-data/pcdkit/internal/fsutil"
	"github.com/banshee-data/pcdkit/internal/pcd"
)

// ScanFailure records a file that looked like a cloud but could not be
// indexed.
type ScanFailure struct {
	Path string
	Err  error
}

// ScanReport is the outcome of ScanDir.
type ScanReport struct {
	Indexed []*Entry
	Failed  []ScanFailure
}

// ScanDir indexes every *.pcd file under root. Files with unreadable
// headers are reported in Failed and do not stop the scan; database and
// walk errors do.
func (c *Catalog) ScanDir(ctx context.Context, fsys fsutil.FileSystem, root string) (*ScanReport, error) {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	report := &ScanReport{}
	err := fsys.Walk(root, func(path string, info fs.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !strings.EqualFold(filepath.Ext(path), ".pcd") {
			return nil
		}
		s, err := readSchema(fsys, path)
		if err != nil {
			opsf("skipping %s: %v", path, err)
			report.Failed = append(report.Failed, ScanFailure{Path: path, Err: err})
			return nil
		}
		e, err := c.Index(ctx, path, info.Size(), s)
		if err != nil {
			return err
		}
		report.Indexed = append(report.Indexed, e)
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("scan %s: %w", root, err)
	}
	diagf("scanned %s: %d indexed, %d failed", root, len(report.Indexed), len(report.Failed))
	return report, nil
}

func readSchema(fsys fsutil.FileSystem, path string) (*pcd.Schema, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return pcd.ReadHeader(bufio.NewReader(f))
}
