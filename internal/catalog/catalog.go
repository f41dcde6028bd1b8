// Package catalog keeps a SQLite index of PCD files: where each one lives,
// its header, and how large it is. Only headers are read while indexing,
// so scanning a directory of large clouds is cheap.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/pcdkit/internal/pcd"
	"github.com/banshee-data/pcdkit/internal/timeutil"
)

// ErrNotFound is returned when no entry has the requested id.
var ErrNotFound = errors.New("catalog: entry not found")

// Catalog wraps the index database.
type Catalog struct {
	*sql.DB
	path  string
	clock timeutil.Clock
}

// Entry describes one indexed cloud.
type Entry struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Bytes     int64     `json:"bytes"`
	Version   string    `json:"version"`
	Fields    []string  `json:"fields"`
	Sizes     []int     `json:"sizes"`
	Types     []string  `json:"types"`
	Counts    []int     `json:"counts"`
	Encoding  string    `json:"encoding"`
	Points    int       `json:"points"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Stride    int       `json:"stride"`
	Viewpoint []float64 `json:"viewpoint"`
	Notes     string    `json:"notes"`
	IndexedAt time.Time `json:"indexed_at"`
}

// Organized reports whether the cloud has image-like structure.
func (e *Entry) Organized() bool {
	return e.Height > 1
}

// Schema rebuilds the header the entry was indexed from.
func (e *Entry) Schema() *pcd.Schema {
	return &pcd.Schema{
		Version:   e.Version,
		Fields:    append([]string(nil), e.Fields...),
		Size:      append([]int(nil), e.Sizes...),
		Type:      append([]string(nil), e.Types...),
		Count:     append([]int(nil), e.Counts...),
		Width:     e.Width,
		Height:    e.Height,
		Points:    e.Points,
		Viewpoint: append([]float64(nil), e.Viewpoint...),
		Data:      pcd.Encoding(e.Encoding),
	}
}

// pragmas are applied by the driver to every new connection.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// Open opens (creating if needed) the catalog at path and brings its
// schema up to date.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	c := &Catalog{DB: db, path: path, clock: timeutil.RealClock{}}
	if err := c.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	diagf("opened catalog %s", path)
	return c, nil
}

// SetClock replaces the clock that stamps IndexedAt, mainly for tests.
func (c *Catalog) SetClock(clk timeutil.Clock) {
	c.clock = clk
}

const entryColumns = `id, path, bytes, version, fields_json, sizes_json, types_json, counts_json,
	encoding, points, width, height, stride, viewpoint_json, notes, indexed_unix_nanos`

// Index records the cloud at path. Re-indexing a path keeps its id and
// notes and refreshes everything else.
func (c *Catalog) Index(ctx context.Context, path string, size int64, s *pcd.Schema) (*Entry, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}
	layout, err := s.Layout()
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}

	e := &Entry{
		ID:        uuid.NewString(),
		Path:      path,
		Bytes:     size,
		Version:   s.Version,
		Fields:    s.Fields,
		Sizes:     s.Size,
		Types:     s.Type,
		Counts:    s.Count,
		Encoding:  string(s.Data),
		Points:    s.Points,
		Width:     s.Width,
		Height:    s.Height,
		Stride:    layout.Stride(),
		Viewpoint: s.Viewpoint,
		IndexedAt: c.clock.Now().UTC(),
	}
	blobs, err := marshalAll(e.Fields, e.Sizes, e.Types, e.Counts, e.Viewpoint)
	if err != nil {
		return nil, err
	}

	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `SELECT id, notes FROM clouds WHERE path = ?`, path).Scan(&e.ID, &e.Notes)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup %s: %w", path, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO clouds (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			bytes = excluded.bytes,
			version = excluded.version,
			fields_json = excluded.fields_json,
			sizes_json = excluded.sizes_json,
			types_json = excluded.types_json,
			counts_json = excluded.counts_json,
			encoding = excluded.encoding,
			points = excluded.points,
			width = excluded.width,
			height = excluded.height,
			stride = excluded.stride,
			viewpoint_json = excluded.viewpoint_json,
			indexed_unix_nanos = excluded.indexed_unix_nanos`,
		e.ID, e.Path, e.Bytes, e.Version, blobs[0], blobs[1], blobs[2], blobs[3],
		e.Encoding, e.Points, e.Width, e.Height, e.Stride, blobs[4], e.Notes, e.IndexedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	diagf("indexed %s as %s (%d points, %s)", path, e.ID, e.Points, e.Encoding)
	return e, nil
}

func marshalAll(vs ...any) ([]string, error) {
	out := make([]string, len(vs))
	for i, v := range vs {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[i] = string(b)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e                                Entry
		fields, sizes, types, counts, vp string
		indexed                          int64
	)
	err := row.Scan(&e.ID, &e.Path, &e.Bytes, &e.Version, &fields, &sizes, &types, &counts,
		&e.Encoding, &e.Points, &e.Width, &e.Height, &e.Stride, &vp, &e.Notes, &indexed)
	if err != nil {
		return nil, err
	}
	for _, blob := range []struct {
		src string
		dst any
	}{
		{fields, &e.Fields}, {sizes, &e.Sizes}, {types, &e.Types}, {counts, &e.Counts}, {vp, &e.Viewpoint},
	} {
		if err := json.Unmarshal([]byte(blob.src), blob.dst); err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
	}
	e.IndexedAt = time.Unix(0, indexed).UTC()
	return &e, nil
}

// Get returns the entry with the given id, or ErrNotFound.
func (c *Catalog) Get(ctx context.Context, id string) (*Entry, error) {
	row := c.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM clouds WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// List returns every entry ordered by path.
func (c *Catalog) List(ctx context.Context) ([]*Entry, error) {
	rows, err := c.QueryContext(ctx, `SELECT `+entryColumns+` FROM clouds ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes an entry. The file itself is untouched.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	res, err := c.ExecContext(ctx, `DELETE FROM clouds WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// SetNotes replaces the free-text notes on an entry.
func (c *Catalog) SetNotes(ctx context.Context, id, notes string) error {
	res, err := c.ExecContext(ctx, `UPDATE clouds SET notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Stats summarises the catalog.
type Stats struct {
	Clouds     int            `json:"clouds"`
	Points     int64          `json:"points"`
	Bytes      int64          `json:"bytes"`
	ByEncoding map[string]int `json:"by_encoding"`
}

// Stats returns catalog-wide totals and the number of clouds per encoding.
func (c *Catalog) Stats(ctx context.Context) (*Stats, error) {
	rows, err := c.QueryContext(ctx, `
		SELECT encoding, COUNT(*), COALESCE(SUM(points), 0), COALESCE(SUM(bytes), 0)
		FROM clouds GROUP BY encoding`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	st := &Stats{ByEncoding: make(map[string]int)}
	for rows.Next() {
		var (
			enc           string
			n             int
			points, bytes int64
		)
		if err := rows.Scan(&enc, &n, &points, &bytes); err != nil {
			return nil, err
		}
		st.ByEncoding[enc] = n
		st.Clouds += n
		st.Points += points
		st.Bytes += bytes
	}
	return st, rows.Err()
}
