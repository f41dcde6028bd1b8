package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubDoer(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	d := NewStubDoer().
		Handle("https://example.test/a.pcd", StubResponse{Status: http.StatusOK, Body: []byte("cloud")}).
		Handle("https://example.test/broken.pcd", StubResponse{Err: boom})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "https://example.test/a.pcd", nil)
	require.NoError(t, err)
	resp, err := d.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cloud", string(body))
	assert.EqualValues(t, 5, resp.ContentLength)

	req, _ = http.NewRequest(http.MethodHead, "https://example.test/missing.pcd", nil)
	resp, err = d.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, "https://example.test/broken.pcd", nil)
	_, err = d.Do(req)
	assert.ErrorIs(t, err, boom)

	reqs := d.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, http.MethodHead, reqs[1].Method)
}

func TestHTTPClientIsDoer(t *testing.T) {
	t.Parallel()

	var _ Doer = http.DefaultClient
}
