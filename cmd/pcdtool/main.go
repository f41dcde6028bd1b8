package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/pcdkit/internal/catalog"
	"github.com/banshee-data/pcdkit/internal/config"
	"github.com/banshee-data/pcdkit/internal/pcd"
)

var (
	configFile = flag.String("config", "", "Path to a .json or .yaml config file (defaults apply when empty)")
	verbose    = flag.Bool("v", false, "Log per-file diagnostics to stderr")
	trace      = flag.Bool("trace", false, "Log per-column decode detail to stderr (implies -v)")
)

// errUsage is returned for malformed command lines; main prints usage and
// exits 2 instead of 1.
var errUsage = errors.New("usage")

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(2)
	}

	cfg := config.Empty()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	setLogWriters(os.Stderr, *verbose, *trace)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flag.Args(), os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "%v\n\n", err)
			printUsage()
			os.Exit(2)
		}
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

// setLogWriters routes the library log streams. Ops warnings always reach w;
// diag needs -v and trace needs -trace.
func setLogWriters(w io.Writer, verbose, trace bool) {
	var diag, tr io.Writer
	if verbose || trace {
		diag = w
	}
	if trace {
		tr = w
	}
	pcd.SetLogWriters(w, diag, tr)
	catalog.SetLogWriters(w, diag, tr)
}

// run dispatches one subcommand. args[0] is the command name.
func run(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", errUsage)
	}
	command, rest := args[0], args[1:]

	switch command {
	case "info":
		return runInfo(ctx, cfg, rest, stdout)
	case "convert":
		return runConvert(ctx, cfg, rest, stdout)
	case "asc":
		return runASC(ctx, cfg, rest, stdout)
	case "plot":
		return runPlot(ctx, cfg, rest, stdout)
	case "chart":
		return runChart(ctx, cfg, rest, stdout)
	case "index":
		return runIndex(ctx, cfg, rest, stdout)
	case "serve":
		return runServe(ctx, cfg, rest, stdout)
	case "fetch":
		return runFetch(ctx, cfg, rest, stdout)
	case "push":
		return runPush(ctx, cfg, rest, stdout)
	case "version":
		return runVersion(stdout)
	case "help":
		printUsage()
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, command)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `pcdtool - inspect, convert and catalog PCD point cloud files

Usage: pcdtool [-config file] [-v] [-trace] <command> [options] <args>

Commands:
  info <cloud>              Print the header and per-column statistics
  convert <in> <out>        Re-save a cloud as binary_compressed
  asc <cloud> <name.asc>    Export X Y Z (+ extra columns) as CloudCompare ASC
  plot <cloud> <name.png>   Render a top-down scatter plot (png, svg, pdf, ...)
  chart <cloud> <out.html>  Render an interactive HTML scatter chart
  index <dir>               Scan a directory and index every .pcd header
  serve                     Serve the catalog viewer over HTTP
  fetch <location> <file>   Copy a cloud from s3:// or http(s):// to a local file
  push <file> <location>    Copy a local cloud to s3:// (or a directory)
  version                   Show build information
  help                      Show this help message

A <cloud> or <location> is a local path, file://, s3://bucket/key or
http(s):// URL. S3 settings come from the "s3" section of -config and the
default AWS credential chain.`)
}
