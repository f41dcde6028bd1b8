package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pcdkit/internal/pcd"
	"github.com/banshee-data/pcdkit/internal/testutil"
	"github.com/banshee-data/pcdkit/internal/timeutil"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func testSchema(t *testing.T, points int) *pcd.Schema {
	t.Helper()
	s, err := pcd.NewSchema(
		[]string{"x", "y", "z", "rgb"},
		[]pcd.ScalarType{pcd.Float32, pcd.Float32, pcd.Float32, pcd.Float32},
		nil, points, 1)
	require.NoError(t, err)
	return s
}

func TestOpen_Pragmas(t *testing.T) {
	t.Parallel()
	c := openTestCatalog(t)

	var mode string
	require.NoError(t, c.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, c.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}

func TestMigrations(t *testing.T) {
	t.Parallel()
	c := openTestCatalog(t)

	v, dirty, err := c.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.EqualValues(t, 2, v)

	require.NoError(t, c.MigrateUp(), "already current is not an error")

	require.NoError(t, c.MigrateTo(1))
	_, err = c.Exec(`UPDATE clouds SET notes = ''`)
	assert.Error(t, err, "notes column is gone at version 1")

	require.NoError(t, c.MigrateUp())
	_, err = c.Exec(`UPDATE clouds SET notes = ''`)
	assert.NoError(t, err)
}

func TestIndexAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := openTestCatalog(t)

	s := testSchema(t, 12)
	s.Viewpoint = []float64{1, 2, 3, 1, 0, 0, 0}
	e, err := c.Index(ctx, "/data/lot.pcd", 4096, s)
	require.NoError(t, err)
	require.NotEmpty(t, e.ID)
	assert.Equal(t, 16, e.Stride)
	assert.False(t, e.Organized())

	got, err := c.Get(ctx, e.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(e, got, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(s, got.Schema()); diff != "" {
		t.Errorf("Schema mismatch (-want +got):\n%s", diff)
	}

	_, err = c.Get(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIndex_ReindexKeepsIDAndNotes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := openTestCatalog(t)
	clock := timeutil.NewMockClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	c.SetClock(clock)

	first, err := c.Index(ctx, "a.pcd", 100, testSchema(t, 3))
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), first.IndexedAt)
	require.NoError(t, c.SetNotes(ctx, first.ID, "north lot, dusk"))

	s := testSchema(t, 6)
	s.Width, s.Height = 3, 2
	clock.Advance(time.Hour)
	again, err := c.Index(ctx, "a.pcd", 200, s)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "north lot, dusk", again.Notes)

	got, err := c.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 200, got.Bytes)
	assert.Equal(t, 6, got.Points)
	assert.True(t, got.Organized())
	assert.Equal(t, clock.Now(), got.IndexedAt)

	assert.ErrorIs(t, c.SetNotes(ctx, "missing", "x"), ErrNotFound)
}

func TestIndex_RejectsInvalidSchema(t *testing.T) {
	t.Parallel()
	c := openTestCatalog(t)

	s := testSchema(t, 4)
	s.Points = 5
	_, err := c.Index(context.Background(), "bad.pcd", 1, s)
	assert.ErrorIs(t, err, pcd.ErrSchema)
}

func TestListDeleteStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := openTestCatalog(t)

	for _, p := range []string{"c.pcd", "a.pcd", "b.pcd"} {
		s := testSchema(t, 10)
		if p == "b.pcd" {
			s.Data = pcd.ASCII
		}
		_, err := c.Index(ctx, p, 1000, s)
		require.NoError(t, err)
	}

	entries, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a.pcd", entries[0].Path)
	assert.Equal(t, "c.pcd", entries[2].Path)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Clouds)
	assert.EqualValues(t, 30, st.Points)
	assert.EqualValues(t, 3000, st.Bytes)
	assert.Equal(t, map[string]int{"binary_compressed": 2, "ascii": 1}, st.ByEncoding)

	require.NoError(t, c.Delete(ctx, entries[0].ID))
	assert.ErrorIs(t, c.Delete(ctx, entries[0].ID), ErrNotFound)
	entries, err = c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestAttachAdminRoutes(t *testing.T) {
	t.Parallel()
	c := openTestCatalog(t)
	_, err := c.Index(context.Background(), "a.pcd", 10, testSchema(t, 2))
	require.NoError(t, err)

	mux := http.NewServeMux()
	require.NoError(t, c.AttachAdminRoutes(mux))

	for _, path := range []string{"/debug/catalog-stats", "/debug/tailsql/", "/debug/backup"} {
		rec := testutil.Serve(t, mux, http.MethodGet, path)
		assert.NotEqual(t, http.StatusNotFound, rec.Code, path)

		if path == "/debug/catalog-stats" && rec.Code == http.StatusOK {
			var st Stats
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
			assert.Equal(t, 1, st.Clouds)
		}
	}
}
