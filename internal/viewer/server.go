// Package viewer serves the cloud catalog over HTTP: JSON listings, per-cloud
// column statistics and an interactive scatter chart of each file.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/banshee-data/pcdkit/internal/catalog"
	"github.com/banshee-data/pcdkit/internal/export"
	"github.com/banshee-data/pcdkit/internal/fsutil"
	"github.com/banshee-data/pcdkit/internal/httputil"
	"github.com/banshee-data/pcdkit/internal/pcd"
)

// Config configures a Server.
type Config struct {
	Address string
	Catalog *catalog.Catalog

	// FS reads cloud files for charts and stats. Nil uses the OS.
	FS fsutil.FileSystem

	// ChartMaxPoints caps chart size; 0 renders every point.
	ChartMaxPoints int

	// Admin mounts the catalog debug routes under /debug/.
	Admin bool
}

// Server is the catalog web UI.
type Server struct {
	cfg    Config
	fsys   fsutil.FileSystem
	server *http.Server
}

// New builds a Server and its routes from cfg. cfg.Catalog is required; a
// nil cfg.FS serves from the OS filesystem.
func New(cfg Config) (*Server, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("viewer: catalog is required")
	}
	s := &Server{cfg: cfg, fsys: cfg.FS}
	if s.fsys == nil {
		s.fsys = fsutil.OSFileSystem{}
	}
	mux, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) routes() (*http.ServeMux, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/clouds", s.handleList)
	mux.HandleFunc("GET /api/clouds/{id}", s.handleGet)
	mux.HandleFunc("GET /api/clouds/{id}/stats", s.handleStats)
	mux.HandleFunc("GET /clouds/{id}/chart", s.handleChart)
	if s.cfg.Admin {
		if err := s.cfg.Catalog.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
	}
	return mux, nil
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Printf("Starting viewer on %s", s.cfg.Address)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("viewer: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Println("shutting down viewer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("viewer shutdown error: %v", err)
		return s.server.Close()
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"service":   "pcdkit",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.cfg.Catalog.List(r.Context())
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []*catalog.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

// columnStats mirrors pcd.ColumnStats with nulls where JSON cannot carry
// the value (NaN, ±Inf).
type columnStats struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Mean   *float64 `json:"mean"`
	StdDev *float64 `json:"stddev"`
	Valid  int      `json:"valid"`
	NaN    int      `json:"nan"`
}

func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	pc, ok := s.load(w, r)
	if !ok {
		return
	}
	raw := pcd.Summarize(pc.Data)
	out := make([]columnStats, len(raw))
	for i, cs := range raw {
		out[i] = columnStats{
			Name:   cs.Name,
			Type:   cs.Type.String(),
			Min:    jsonFloat(cs.Min),
			Max:    jsonFloat(cs.Max),
			Mean:   jsonFloat(cs.Mean),
			StdDev: jsonFloat(cs.StdDev),
			Valid:  cs.Valid,
			NaN:    cs.NaN,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	pc, ok := s.load(w, r)
	if !ok {
		return
	}
	opts := export.ChartOptions{
		Title:     r.PathValue("id"),
		ColorBy:   r.URL.Query().Get("color"),
		MaxPoints: s.cfg.ChartMaxPoints,
	}
	if err := checkChartable(pc, opts.ColorBy); err != nil {
		httputil.WriteError(w, http.StatusUnprocessableEntity, err)
		return
	}
	httputil.WriteHTML(w, func(buf io.Writer) error {
		return export.RenderScatter(buf, pc, opts)
	})
}

func checkChartable(pc *pcd.PointCloud, colorBy string) error {
	for _, name := range []string{"x", "y", colorBy} {
		if name != "" && pc.Column(name) == nil {
			return fmt.Errorf("%w: cloud has no %q column", pcd.ErrSchema, name)
		}
	}
	return nil
}

func (s *Server) entry(w http.ResponseWriter, r *http.Request) (*catalog.Entry, bool) {
	e, err := s.cfg.Catalog.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, catalog.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return nil, false
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return e, true
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (*pcd.PointCloud, bool) {
	e, ok := s.entry(w, r)
	if !ok {
		return nil, false
	}
	pc, err := pcd.LoadFile(s.fsys, e.Path)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, fs.ErrNotExist) {
			status = http.StatusGone
		}
		httputil.WriteError(w, status, err)
		return nil, false
	}
	return pc, true
}
