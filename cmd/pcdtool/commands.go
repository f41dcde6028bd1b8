package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/pcdkit/internal/catalog"
	"github.com/banshee-data/pcdkit/internal/config"
	"github.com/banshee-data/pcdkit/internal/export"
	"github.com/banshee-data/pcdkit/internal/fsutil"
	"github.com/banshee-data/pcdkit/internal/pcd"
	"github.com/banshee-data/pcdkit/internal/storage"
	"github.com/banshee-data/pcdkit/internal/version"
	"github.com/banshee-data/pcdkit/internal/viewer"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// parseArgs parses flags and checks the positional argument count.
func parseArgs(fs *flag.FlagSet, args []string, want int, names string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != want {
		return fmt.Errorf("%w: pcdtool %s %s", errUsage, fs.Name(), names)
	}
	return nil
}

func loadCloud(ctx context.Context, cfg *config.Config, location string) (*pcd.PointCloud, error) {
	st, key, err := storage.Open(ctx, location, cfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return storage.LoadCloud(ctx, st, key)
}

func runInfo(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := newFlagSet("info")
	headerOnly := fs.Bool("header", false, "Print the header only and skip decoding the payload")
	if err := parseArgs(fs, args, 1, "[-header] <cloud>"); err != nil {
		return err
	}
	location := fs.Arg(0)

	if *headerOnly {
		st, key, err := storage.Open(ctx, location, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		data, err := st.Read(ctx, key)
		if err != nil {
			return err
		}
		s, err := pcd.ReadHeader(bufio.NewReader(bytes.NewReader(data)))
		if err != nil {
			return fmt.Errorf("%s: %w", location, err)
		}
		_, err = io.WriteString(stdout, s.ComposeHeader())
		return err
	}

	pc, err := loadCloud(ctx, cfg, location)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(stdout, pc.Schema.ComposeHeader()); err != nil {
		return err
	}
	fmt.Fprintln(stdout)

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tVALID\tNAN\tMIN\tMAX\tMEAN\tSTDDEV")
	for _, cs := range pcd.Summarize(pc.Data) {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			cs.Name, cs.Type, cs.Valid, cs.NaN,
			statText(cs.Min), statText(cs.Max), statText(cs.Mean), statText(cs.StdDev))
	}
	return tw.Flush()
}

func statText(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4g", v)
}

func runConvert(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := newFlagSet("convert")
	if err := parseArgs(fs, args, 2, "<in> <out>"); err != nil {
		return err
	}
	pc, err := loadCloud(ctx, cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	st, key, err := storage.Open(ctx, fs.Arg(1), cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := storage.SaveCloud(ctx, st, key, pc); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %d points to %s (binary_compressed)\n", pc.Count(), fs.Arg(1))
	return nil
}

func runASC(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := newFlagSet("asc")
	precision := fs.Int("precision", cfg.GetASCPrecision(), "Digits after the decimal point for float columns (-1 for shortest)")
	extra := fs.String("extra", "", "Comma-separated extra columns after X Y Z (default: all remaining, \"-\" for none)")
	dir := fs.String("dir", cfg.GetExportDir(), "Directory the export is written under")
	if err := parseArgs(fs, args, 2, "[-precision n] [-extra a,b] [-dir d] <cloud> <name.asc>"); err != nil {
		return err
	}
	pc, err := loadCloud(ctx, cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	opts := export.DefaultASCOptions()
	opts.Precision = *precision
	opts.Dir = *dir
	switch *extra {
	case "":
	case "-":
		opts.Extra = []string{}
	default:
		opts.Extra = strings.Split(*extra, ",")
	}

	path, err := export.ExportASC(pc, fs.Arg(1), opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, path)
	return nil
}

func runPlot(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := newFlagSet("plot")
	title := fs.String("title", "", "Plot title (default: the input name)")
	colorBy := fs.String("color-by", "", "Column mapped onto the colour ramp (default: z)")
	maxPoints := fs.Int("max-points", cfg.GetPlotMaxPoints(), "Stride the cloud down to about this many points (0 for all)")
	dir := fs.String("dir", cfg.GetExportDir(), "Directory the plot is written under")
	if err := parseArgs(fs, args, 2, "[-title t] [-color-by col] [-max-points n] [-dir d] <cloud> <name.png>"); err != nil {
		return err
	}
	pc, err := loadCloud(ctx, cfg, fs.Arg(0))
	if err != nil {
		return err
	}
	if *title == "" {
		*title = fs.Arg(0)
	}

	path, err := export.PlotTopDown(pc, fs.Arg(1), export.PlotOptions{
		Title:     *title,
		Width:     vg.Length(cfg.GetPlotWidthInch()) * vg.Inch,
		Height:    vg.Length(cfg.GetPlotHeightInch()) * vg.Inch,
		MaxPoints: *maxPoints,
		ColorBy:   *colorBy,
		Dir:       *dir,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, path)
	return nil
}

func runChart(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := newFlagSet("chart")
	title := fs.String("title", "", "Chart title (default: the input name)")
	colorBy := fs.String("color-by", "", "Column driving the visual map (default: z)")
	maxPoints := fs.Int("max-points", cfg.GetChartMaxPoints(), "Stride the cloud down to about this many points (0 for all)")
	if err := parseArgs(fs, args, 2, "[-title t] [-color-by col] [-max-points n] <cloud> <out.html>"); err != nil {
		return err
	}
	pc, err := loadCloud(ctx, cfg, fs.Arg(0))
	if err != nil {
		return err
	}
	if *title == "" {
		*title = fs.Arg(0)
	}

	out := fs.Arg(1)
	err = fsutil.WriteAtomic(fsutil.OSFileSystem{}, out, func(w io.Writer) error {
		return export.RenderScatter(w, pc, export.ChartOptions{
			Title:     *title,
			ColorBy:   *colorBy,
			MaxPoints: *maxPoints,
		})
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, out)
	return nil
}

func runIndex(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := newFlagSet("index")
	dbPath := fs.String("db", cfg.GetCatalogPath(), "Catalog database path")
	if err := parseArgs(fs, args, 1, "[-db path] <dir>"); err != nil {
		return err
	}
	cat, err := catalog.Open(*dbPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	report, err := cat.ScanDir(ctx, nil, fs.Arg(0))
	if err != nil {
		return err
	}
	for _, e := range report.Indexed {
		fmt.Fprintf(stdout, "indexed  %s  %s  %d points  %s\n", e.ID, e.Path, e.Points, e.Encoding)
	}
	for _, f := range report.Failed {
		fmt.Fprintf(stdout, "failed   %s: %v\n", f.Path, f.Err)
	}
	fmt.Fprintf(stdout, "%d indexed, %d failed\n", len(report.Indexed), len(report.Failed))
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, args []string, _ io.Writer) error {
	fs := newFlagSet("serve")
	listen := fs.String("listen", cfg.GetListenAddr(), "HTTP listen address")
	dbPath := fs.String("db", cfg.GetCatalogPath(), "Catalog database path")
	scan := fs.Bool("scan", false, "Index the cloud directory before serving")
	admin := fs.Bool("admin", false, "Mount the catalog debug routes under /debug/")
	if err := parseArgs(fs, args, 0, "[-listen addr] [-db path] [-scan] [-admin]"); err != nil {
		return err
	}

	cat, err := catalog.Open(*dbPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	if *scan {
		report, err := cat.ScanDir(ctx, nil, cfg.GetCloudDir())
		if err != nil {
			return err
		}
		log.Printf("Indexed %d clouds under %s (%d failed)", len(report.Indexed), cfg.GetCloudDir(), len(report.Failed))
	}

	srv, err := viewer.New(viewer.Config{
		Address:        *listen,
		Catalog:        cat,
		ChartMaxPoints: cfg.GetChartMaxPoints(),
		Admin:          *admin,
	})
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}

// runFetch copies a cloud byte-for-byte after checking that its header
// parses, so a failed download never leaves a local file behind.
func runFetch(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := newFlagSet("fetch")
	if err := parseArgs(fs, args, 2, "<location> <file>"); err != nil {
		return err
	}
	n, err := copyCloud(ctx, cfg, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Fetched %d bytes to %s\n", n, fs.Arg(1))
	return nil
}

func runPush(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := newFlagSet("push")
	if err := parseArgs(fs, args, 2, "<file> <location>"); err != nil {
		return err
	}
	n, err := copyCloud(ctx, cfg, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Pushed %d bytes to %s\n", n, fs.Arg(1))
	return nil
}

func copyCloud(ctx context.Context, cfg *config.Config, from, to string) (int, error) {
	src, srcKey, err := storage.Open(ctx, from, cfg)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	data, err := src.Read(ctx, srcKey)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", from, err)
	}
	if _, err := pcd.ReadHeader(bufio.NewReader(bytes.NewReader(data))); err != nil {
		return 0, fmt.Errorf("%s: %w", from, err)
	}

	dst, dstKey, err := storage.Open(ctx, to, cfg)
	if err != nil {
		return 0, err
	}
	defer dst.Close()
	if err := dst.Write(ctx, dstKey, data); err != nil {
		return 0, fmt.Errorf("write %s: %w", to, err)
	}
	return len(data), nil
}

func runVersion(stdout io.Writer) error {
	_, err := fmt.Fprintln(stdout, version.String())
	return err
}
