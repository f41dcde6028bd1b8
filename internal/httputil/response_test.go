package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp["error"]
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]int{"points": 42})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"points": 42}`, rec.Body.String())
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, errors.New("pcd: malformed header"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "pcd: malformed header", decodeError(t, rec))

	rec = httptest.NewRecorder()
	WriteError(rec, http.StatusInternalServerError, errors.New("open /secret/path: permission denied"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, rec))
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteHTML(rec, func(w io.Writer) error {
		_, err := io.WriteString(w, "<html>ok</html>")
		return err
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<html>ok</html>", rec.Body.String())

	rec = httptest.NewRecorder()
	WriteHTML(rec, func(w io.Writer) error {
		_, _ = io.WriteString(w, "<html>half")
		return errors.New("render failed")
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<html>")
}

func TestShortcuts(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NotFound(rec, "no cloud 42")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no cloud 42", decodeError(t, rec))

	rec = httptest.NewRecorder()
	MethodNotAllowed(rec)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
