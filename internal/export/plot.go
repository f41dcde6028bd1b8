package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/pcdkit/internal/fsutil"
	"github.com/banshee-data/pcdkit/internal/pcd"
)

// PlotOptions controls top-down scatter plots.
type PlotOptions struct {
	Title string

	// Width and Height default to 8 inches.
	Width, Height vg.Length

	// MaxPoints caps the plotted points by striding; 0 plots all of them.
	MaxPoints int

	// ColorBy names the column mapped onto the colour ramp. Empty uses z
	// when present; a cloud without it is drawn in one colour.
	ColorBy string

	Dir string
	FS  fsutil.FileSystem
}

var plotFormats = map[string]bool{
	"png": true, "svg": true, "pdf": true, "jpg": true, "jpeg": true, "tif": true, "tiff": true, "eps": true,
}

// WriteTopDown draws x against y and encodes the plot in format (png, svg,
// pdf, ...). Points with a non-finite coordinate are skipped.
func WriteTopDown(w io.Writer, pc *pcd.PointCloud, format string, opts PlotOptions) error {
	format = strings.ToLower(format)
	if !plotFormats[format] {
		return fmt.Errorf("unsupported plot format %q", format)
	}
	cols, err := requireColumns(pc, "x", "y")
	if err != nil {
		return err
	}
	xc, yc := cols[0], cols[1]
	cc, err := colorColumn(pc, opts.ColorBy)
	if err != nil {
		return err
	}

	n := pc.Count()
	step := stride(n, opts.MaxPoints)
	pts := make(plotter.XYs, 0, n/step+1)
	var shade []float64
	for i := 0; i < n; i += step {
		x, y := xc.Float64(i), yc.Float64(i)
		if !finite(x, y) {
			continue
		}
		pts = append(pts, plotter.XY{X: x, Y: y})
		if cc != nil {
			shade = append(shade, cc.Float64(i))
		}
	}
	if len(pts) == 0 {
		return ErrEmpty
	}

	p := plot.New()
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = fmt.Sprintf("Top-down view (%d of %d points)", len(pts), n)
	}
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("build scatter: %w", err)
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(1)
	if shade != nil {
		lo, hi := finiteRange(shade)
		s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			g := s.GlyphStyle
			g.Color = ramp(normalize(shade[i], lo, hi))
			return g
		}
	}
	p.Add(s, plotter.NewGrid())

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 8 * vg.Inch
	}
	if height <= 0 {
		height = 8 * vg.Inch
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// PlotTopDown writes a top-down plot to name inside opts.Dir, choosing
// the image format from the extension. It returns the path written.
func PlotTopDown(pc *pcd.PointCloud, name string, opts PlotOptions) (string, error) {
	format := strings.TrimPrefix(filepath.Ext(name), ".")
	if format == "" {
		return "", fmt.Errorf("plot name %q has no extension", name)
	}
	// Fail on a bad cloud before touching the filesystem.
	if _, err := requireColumns(pc, "x", "y"); err != nil {
		return "", err
	}
	return writeUnder(opts.FS, opts.Dir, name, func(w io.Writer) error {
		return WriteTopDown(w, pc, format, opts)
	})
}

func colorColumn(pc *pcd.PointCloud, name string) (*pcd.Column, error) {
	if name == "" {
		return pc.Column("z"), nil
	}
	cols, err := requireColumns(pc, name)
	if err != nil {
		return nil, err
	}
	return cols[0], nil
}

func finiteRange(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if !finite(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

func normalize(v, lo, hi float64) float64 {
	if !finite(v) || hi <= lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}

// ramp maps t in [0,1] from blue through green to red.
func ramp(t float64) color.Color {
	r, g, b := hslToRGB((1-t)*2.0/3.0, 0.8, 0.45)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(l * 255)
		return v, v, v
	}
	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255),
		uint8(hueToRGB(p, q, h) * 255),
		uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
