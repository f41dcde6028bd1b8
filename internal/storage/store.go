// Package storage moves cloud files between the local disk, S3 and plain
// HTTP servers behind one key/value interface.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/pcdkit/internal/pcd"
)

var (
	// ErrNotFound is returned by Read when the key does not exist.
	ErrNotFound = errors.New("storage: object not found")

	// ErrReadOnly is returned by stores that cannot be written to.
	ErrReadOnly = errors.New("storage: store is read-only")
)

// Store is a flat key/value view of a cloud collection. Keys use forward
// slashes whatever the backend.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)

	// List returns the keys under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	Close() error
}

// LoadCloud reads key from st and decodes it.
func LoadCloud(ctx context.Context, st Store, key string, opts ...pcd.Option) (*pcd.PointCloud, error) {
	data, err := st.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	pc, err := pcd.Load(bytes.NewReader(data), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return pc, nil
}

// SaveCloud encodes pc as binary_compressed and writes it to key.
func SaveCloud(ctx context.Context, st Store, key string, pc *pcd.PointCloud, opts ...pcd.Option) error {
	var buf bytes.Buffer
	if err := pc.Save(&buf, opts...); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return st.Write(ctx, key, buf.Bytes())
}
