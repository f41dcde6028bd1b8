package storage

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/banshee-data/pcdkit/internal/config"
)

// Open resolves a location to a store and the key of the object within it:
//
//	s3://bucket/path/scan.pcd    S3, configured from cfg.S3 (bucket from the URI)
//	https://host/path/scan.pcd   read-only HTTP
//	path/to/scan.pcd             local directory of the file
func Open(ctx context.Context, location string, cfg *config.Config) (Store, string, error) {
	if cfg == nil {
		cfg = config.Empty()
	}
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Not a URL, or a Windows drive letter.
		return NewDirStore(filepath.Dir(location), nil), filepath.Base(location), nil
	}

	switch u.Scheme {
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, "", fmt.Errorf("s3 location %q needs a bucket and a key", location)
		}
		s3cfg := config.S3Config{}
		if c := cfg.GetS3(); c != nil {
			s3cfg = *c
			if s3cfg.Bucket != u.Host {
				// The prefix belongs to the configured bucket only.
				s3cfg.Prefix = ""
			}
		}
		s3cfg.Bucket = u.Host
		st, err := NewS3Store(ctx, s3cfg)
		if err != nil {
			return nil, "", err
		}
		return st, key, nil
	case "http", "https":
		dir, file := splitURLPath(u.Path)
		if file == "" {
			return nil, "", fmt.Errorf("http location %q has no file name", location)
		}
		base := url.URL{Scheme: u.Scheme, Host: u.Host, Path: dir}
		return NewHTTPStore(base.String(), nil), file, nil
	case "file":
		return NewDirStore(filepath.Dir(u.Path), nil), filepath.Base(u.Path), nil
	}
	return nil, "", fmt.Errorf("unsupported storage scheme %q", u.Scheme)
}

func splitURLPath(p string) (dir, file string) {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}
