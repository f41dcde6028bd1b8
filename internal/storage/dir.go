package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banshee-data/pcdkit/internal/fsutil"
	"github.com/banshee-data/pcdkit/internal/security"
)

// DirStore keeps objects as files under a root directory. Keys that would
// resolve outside the root are rejected.
type DirStore struct {
	root string
	fsys fsutil.FileSystem
}

// NewDirStore returns a store rooted at root. A nil fsys uses the OS.
func NewDirStore(root string, fsys fsutil.FileSystem) *DirStore {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	return &DirStore{root: filepath.Clean(root), fsys: fsys}
}

func (d *DirStore) path(key string) (string, error) {
	return security.ResolveWithin(d.root, filepath.FromSlash(key))
}

func (d *DirStore) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := d.path(key)
	if err != nil {
		return nil, err
	}
	data, err := d.fsys.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (d *DirStore) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := d.path(key)
	if err != nil {
		return err
	}
	return fsutil.WriteAtomic(d.fsys, p, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	})
}

func (d *DirStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := d.path(key)
	if err != nil {
		return false, err
	}
	return d.fsys.Exists(p), nil
}

func (d *DirStore) List(ctx context.Context, prefix string) ([]string, error) {
	if !d.fsys.Exists(d.root) {
		return nil, nil
	}
	var keys []string
	err := d.fsys.Walk(d.root, func(p string, _ fs.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) && !strings.HasSuffix(key, ".tmp") {
			keys = append(keys, key)
		}
		return nil
	})
	sort.Strings(keys)
	return keys, err
}

func (d *DirStore) Close() error { return nil }
