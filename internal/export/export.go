// Package export renders point clouds for other tools: CloudCompare ASC
// text, top-down scatter plots (PNG, SVG, PDF) and interactive echarts
// HTML. Every exporter needs x and y columns; ASC also needs z.
package export

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"path/filepath"

	"github.com/banshee-data/pcdkit/internal/fsutil"
	"github.com/banshee-data/pcdkit/internal/pcd"
	"github.com/banshee-data/pcdkit/internal/security"
)

// ErrEmpty is returned when a cloud has no points, or no finite points
// where finite coordinates are needed.
var ErrEmpty = errors.New("export: no points to export")

// DefaultDir is used when an exporter is given no output directory.
const DefaultDir = "exports"

func requireColumns(pc *pcd.PointCloud, names ...string) ([]*pcd.Column, error) {
	if pc == nil || pc.Schema == nil || pc.Data == nil {
		return nil, fmt.Errorf("%w: nil cloud", pcd.ErrInvalidInput)
	}
	cols := make([]*pcd.Column, len(names))
	for i, name := range names {
		c := pc.Column(name)
		if c == nil {
			return nil, fmt.Errorf("%w: cloud has no %q column (columns: %v)", pcd.ErrSchema, name, pc.Data.Names())
		}
		cols[i] = c
	}
	return cols, nil
}

// stride picks every k-th point so that at most maxPoints survive.
func stride(n, maxPoints int) int {
	if maxPoints <= 0 || n <= maxPoints {
		return 1
	}
	return (n + maxPoints - 1) / maxPoints
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// writeUnder sanitizes name, resolves it inside dir and writes it
// atomically through fsys. It returns the path written.
func writeUnder(fsys fsutil.FileSystem, dir, name string, write func(io.Writer) error) (string, error) {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	if dir == "" {
		dir = DefaultDir
	}
	base := security.SanitizeFilename(filepath.Base(name))
	if base == "unknown" || base == "." || base == ".." {
		return "", fmt.Errorf("invalid export filename %q", name)
	}
	path, err := security.ResolveWithin(dir, base)
	if err != nil {
		log.Printf("Security: rejected export path %q under %s: %v", name, dir, err)
		return "", fmt.Errorf("invalid export path: %w", err)
	}
	if err := fsutil.WriteAtomic(fsys, path, write); err != nil {
		return "", err
	}
	return path, nil
}
