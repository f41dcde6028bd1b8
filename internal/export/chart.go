package export

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/pcdkit/internal/pcd"
)

// ChartOptions controls the echarts scatter page.
type ChartOptions struct {
	Title string

	// ColorBy names the column driving the visual map. Empty uses z when
	// the cloud has one.
	ColorBy string

	// MaxPoints caps the rendered points by striding; 0 renders all.
	MaxPoints int

	// AssetsHost overrides where the page loads echarts.min.js from.
	AssetsHost string
}

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// RenderScatter writes a self-contained HTML page with an x/y scatter of
// pc, coloured by opts.ColorBy.
func RenderScatter(w io.Writer, pc *pcd.PointCloud, o ChartOptions) error {
	cols, err := requireColumns(pc, "x", "y")
	if err != nil {
		return err
	}
	xc, yc := cols[0], cols[1]
	cc, err := colorColumn(pc, o.ColorBy)
	if err != nil {
		return err
	}

	n := pc.Count()
	step := stride(n, o.MaxPoints)
	data := make([]opts.ScatterData, 0, n/step+1)
	pad := 1.0
	vmin, vmax := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i += step {
		x, y := xc.Float64(i), yc.Float64(i)
		if !finite(x, y) {
			continue
		}
		pad = math.Max(pad, math.Max(math.Abs(x), math.Abs(y)))

		v := 0.0
		if cc != nil {
			v = cc.Float64(i)
			if !finite(v) {
				v = 0
			}
			vmin, vmax = math.Min(vmin, v), math.Max(vmax, v)
		}
		data = append(data, opts.ScatterData{Value: []interface{}{x, y, v}})
	}
	if len(data) == 0 {
		return ErrEmpty
	}
	if vmin > vmax {
		vmin, vmax = 0, 1
	}
	pad = math.Ceil(pad)

	colorName := "none"
	if cc != nil {
		colorName = cc.Name()
	}
	title := o.Title
	if title == "" {
		title = "Point cloud"
	}

	// Square plot with symmetric axes so distances read true.
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "900px", Height: "900px", AssetsHost: o.AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("points=%d of %d stride=%d colour=%s", len(data), n, step, colorName)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(cc != nil),
			Calculable: opts.Bool(true),
			Min:        float32(vmin),
			Max:        float32(vmax),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("points", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	return scatter.Render(w)
}
