package catalog

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/pcdkit/internal/httputil"
)

// AttachAdminRoutes mounts the tsweb debug index on mux with a live SQL
// console over the catalog, JSON stats and a gzipped backup download.
func (c *Catalog) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+filepath.Base(c.path), c.DB, &tailsql.DBOptions{
		Label: "Cloud catalog",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("catalog-stats", "Catalog totals by encoding (JSON)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, err := c.Stats(r.Context())
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, st)
	}))

	debug.Handle("backup", "Download a gzipped snapshot of the catalog", http.HandlerFunc(c.handleBackup))
	return nil
}

func (c *Catalog) handleBackup(w http.ResponseWriter, r *http.Request) {
	name := fmt.Sprintf("catalog-backup-%d.db", c.clock.Now().UnixNano())
	tmp := filepath.Join(os.TempDir(), name)
	if _, err := c.ExecContext(r.Context(), "VACUUM INTO ?", tmp); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, fmt.Errorf("create backup: %w", err))
		return
	}
	defer os.Remove(tmp)

	f, err := os.Open(tmp)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", name))
	w.Header().Set("Content-Type", "application/gzip")
	gz := gzip.NewWriter(w)
	if _, err := io.Copy(gz, f); err != nil {
		opsf("backup stream failed: %v", err)
		return
	}
	if err := gz.Close(); err != nil {
		opsf("backup stream failed: %v", err)
	}
}
