package storage

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pcdkit/internal/httputil"
)

func TestHTTPStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	boom := errors.New("connection refused")
	doer := httputil.NewStubDoer().
		Handle("https://data.example/clouds/a.pcd", httputil.StubResponse{Status: http.StatusOK, Body: []byte("cloud")}).
		Handle("https://data.example/clouds/private.pcd", httputil.StubResponse{Status: http.StatusForbidden}).
		Handle("https://data.example/clouds/down.pcd", httputil.StubResponse{Err: boom})
	st := NewHTTPStore("https://data.example/clouds/", doer)

	data, err := st.Read(ctx, "a.pcd")
	require.NoError(t, err)
	assert.Equal(t, "cloud", string(data))

	_, err = st.Read(ctx, "missing.pcd")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Read(ctx, "private.pcd")
	assert.ErrorContains(t, err, "403")
	_, err = st.Read(ctx, "down.pcd")
	assert.ErrorIs(t, err, boom)

	ok, err := st.Exists(ctx, "a.pcd")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = st.Exists(ctx, "missing.pcd")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = st.Exists(ctx, "private.pcd")
	assert.Error(t, err)

	assert.ErrorIs(t, st.Write(ctx, "a.pcd", nil), ErrReadOnly)
	_, err = st.List(ctx, "")
	assert.ErrorIs(t, err, errors.ErrUnsupported)

	reqs := doer.Requests()
	require.NotEmpty(t, reqs)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, http.MethodHead, reqs[4].Method)
}
