package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pcdkit/internal/config"
)

func TestOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := config.Empty()
	cfg.S3 = &config.S3Config{
		Bucket:          "lidar",
		Prefix:          "raw",
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "k",
		SecretAccessKey: "s",
	}

	st, key, err := Open(ctx, "s3://lidar/site/a.pcd", cfg)
	require.NoError(t, err)
	require.IsType(t, &S3Store{}, st)
	assert.Equal(t, "site/a.pcd", key)
	assert.Equal(t, "raw/site/a.pcd", st.(*S3Store).fullKey(key))

	st, _, err = Open(ctx, "s3://other/a.pcd", cfg)
	require.NoError(t, err)
	assert.Equal(t, "other", st.(*S3Store).bucket)
	assert.Equal(t, "", st.(*S3Store).prefix)

	st, key, err = Open(ctx, "https://data.example/clouds/a.pcd", nil)
	require.NoError(t, err)
	require.IsType(t, &HTTPStore{}, st)
	assert.Equal(t, "a.pcd", key)
	assert.Equal(t, "https://data.example/clouds/a.pcd", st.(*HTTPStore).url(key))

	local := filepath.Join("data", "site", "a.pcd")
	st, key, err = Open(ctx, local, nil)
	require.NoError(t, err)
	require.IsType(t, &DirStore{}, st)
	assert.Equal(t, "a.pcd", key)
	assert.Equal(t, filepath.Join("data", "site"), st.(*DirStore).root)

	st, key, err = Open(ctx, "file:///srv/clouds/b.pcd", nil)
	require.NoError(t, err)
	assert.Equal(t, "/srv/clouds", st.(*DirStore).root)
	assert.Equal(t, "b.pcd", key)

	for _, bad := range []string{"s3://lidar", "s3:///a.pcd", "https://data.example/", "ftp://host/a.pcd"} {
		_, _, err := Open(ctx, bad, cfg)
		assert.Error(t, err, bad)
	}
}
