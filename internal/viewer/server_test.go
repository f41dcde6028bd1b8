package viewer

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pcdkit/internal/catalog"
	"github.com/banshee-data/pcdkit/internal/fsutil"
	"github.com/banshee-data/pcdkit/internal/pcd"
	"github.com/banshee-data/pcdkit/internal/testutil"
)

type fixture struct {
	srv     *Server
	cat     *catalog.Catalog
	cloudID string
	goneID  string
}

func newFixture(t *testing.T, admin bool) *fixture {
	t.Helper()
	ctx := context.Background()

	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	mfs := fsutil.NewMemoryFileSystem()
	nan := math.NaN()
	pc, err := pcd.FromPreset("xyzi", [][]float64{{1, 2, 3, nan}, {-4, 5, 6, nan}, {7, -8, 9, nan}}, pcd.Invalid)
	require.NoError(t, err)
	require.NoError(t, pc.SaveFile(mfs, "/clouds/lot.pcd"))

	e, err := cat.Index(ctx, "/clouds/lot.pcd", 100, pc.Schema)
	require.NoError(t, err)
	gone, err := cat.Index(ctx, "/clouds/deleted.pcd", 100, pc.Schema.Clone())
	require.NoError(t, err)

	srv, err := New(Config{Catalog: cat, FS: mfs, ChartMaxPoints: 2, Admin: admin})
	require.NoError(t, err)
	return &fixture{srv: srv, cat: cat, cloudID: e.ID, goneID: gone.ID}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.Serve(t, f.srv.Handler(), http.MethodGet, path)
}

func TestNew_RequiresCatalog(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	rec := f.get(t, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestListAndGet(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	rec := f.get(t, "/api/clouds")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []catalog.Entry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "/clouds/deleted.pcd", entries[0].Path)

	rec = f.get(t, "/api/clouds/"+f.cloudID)
	require.Equal(t, http.StatusOK, rec.Code)
	var e catalog.Entry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
	assert.Equal(t, f.cloudID, e.ID)
	assert.Equal(t, 3, e.Points)
	assert.Equal(t, []string{"x", "y", "z", "intensity"}, e.Fields)

	rec = f.get(t, "/api/clouds/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/clouds", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestList_Empty(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	for _, id := range []string{f.cloudID, f.goneID} {
		require.NoError(t, f.cat.Delete(context.Background(), id))
	}

	rec := f.get(t, "/api/clouds")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestStats(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	rec := f.get(t, "/api/clouds/"+f.cloudID+"/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats []columnStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	require.Len(t, stats, 4)

	x := stats[0]
	assert.Equal(t, "x", x.Name)
	assert.Equal(t, "float32", x.Type)
	require.NotNil(t, x.Min)
	assert.Equal(t, -4.0, *x.Min)
	assert.Equal(t, 7.0, *x.Max)
	assert.Equal(t, 3, x.Valid)

	in := stats[3]
	assert.Nil(t, in.Min)
	assert.Nil(t, in.Mean)
	assert.Equal(t, 0, in.Valid)
	assert.Equal(t, 3, in.NaN)

	rec = f.get(t, "/api/clouds/"+f.goneID+"/stats")
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestChart(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	rec := f.get(t, "/clouds/"+f.cloudID+"/chart")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<html")

	rec = f.get(t, "/clouds/"+f.cloudID+"/chart?color=z")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.get(t, "/clouds/"+f.cloudID+"/chart?color=ring")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.get(t, "/clouds/"+f.goneID+"/chart")
	assert.Equal(t, http.StatusGone, rec.Code)

	rec = f.get(t, "/clouds/missing/chart")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	rec := f.get(t, "/debug/catalog-stats")
	assert.NotEqual(t, http.StatusNotFound, rec.Code)

	f = newFixture(t, false)
	rec = f.get(t, "/debug/catalog-stats")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStart_StopsOnCancel(t *testing.T) {
	t.Parallel()

	cat, err := catalog.Open(filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	defer cat.Close()

	srv, err := New(Config{Address: "127.0.0.1:0", Catalog: cat})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, srv.Start(ctx))
}
