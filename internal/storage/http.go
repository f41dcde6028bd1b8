package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/banshee-data/pcdkit/internal/httputil"
)

// maxHTTPObject bounds downloads so a misbehaving server cannot exhaust
// memory.
const maxHTTPObject = 2 << 30

// HTTPStore reads clouds from a static HTTP(S) server. It cannot write or
// list.
type HTTPStore struct {
	base   string
	client httputil.Doer
}

// NewHTTPStore serves keys relative to base. A nil client uses
// http.DefaultClient.
func NewHTTPStore(base string, client httputil.Doer) *HTTPStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPStore{base: strings.TrimSuffix(base, "/"), client: client}
}

func (h *HTTPStore) url(key string) string {
	return h.base + "/" + strings.TrimPrefix(key, "/")
}

func (h *HTTPStore) do(ctx context.Context, method, key string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.url(key), nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}
	return resp, nil
}

func (h *HTTPStore) Read(ctx context.Context, key string) ([]byte, error) {
	resp, err := h.do(ctx, http.MethodGet, key)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("GET %s: unexpected status %d", h.url(key), resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxHTTPObject+1))
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", h.url(key), err)
	}
	if len(data) > maxHTTPObject {
		return nil, fmt.Errorf("GET %s: object larger than %d bytes", h.url(key), maxHTTPObject)
	}
	return data, nil
}

func (h *HTTPStore) Exists(ctx context.Context, key string) (bool, error) {
	resp, err := h.do(ctx, http.MethodHead, key)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return true, nil
	}
	return false, fmt.Errorf("HEAD %s: unexpected status %d", h.url(key), resp.StatusCode)
}

func (h *HTTPStore) Write(context.Context, string, []byte) error {
	return ErrReadOnly
}

func (h *HTTPStore) List(context.Context, string) ([]string, error) {
	return nil, fmt.Errorf("http store: %w", errors.ErrUnsupported)
}

func (h *HTTPStore) Close() error { return nil }
