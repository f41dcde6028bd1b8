// Package testutil provides shared test fixtures: small ASCII clouds and
// HTTP helpers for handlers mounted behind loopback-only debug routes.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

// LoopbackAddr is the RemoteAddr given to requests built by Serve, so
// handlers that only answer local callers accept them.
const LoopbackAddr = "127.0.0.1:4000"

// ASCIICloud returns an unorganized ascii PCD file with one float32
// field per name and one row per point.
func ASCIICloud(fields []string, rows [][]float64) string {
	repeat := func(s string) string {
		return strings.TrimSpace(strings.Repeat(s+" ", len(fields)))
	}

	var b strings.Builder
	b.WriteString("# .PCD v0.7 - Point Cloud Data file format\n")
	b.WriteString("VERSION 0.7\n")
	b.WriteString("FIELDS " + strings.Join(fields, " ") + "\n")
	b.WriteString("SIZE " + repeat("4") + "\n")
	b.WriteString("TYPE " + repeat("F") + "\n")
	b.WriteString("COUNT " + repeat("1") + "\n")
	b.WriteString("WIDTH " + strconv.Itoa(len(rows)) + "\n")
	b.WriteString("HEIGHT 1\n")
	b.WriteString("VIEWPOINT 0 0 0 1 0 0 0\n")
	b.WriteString("POINTS " + strconv.Itoa(len(rows)) + "\n")
	b.WriteString("DATA ascii\n")
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Serve runs one request through h from LoopbackAddr.
func Serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = LoopbackAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}
