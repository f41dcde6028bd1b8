// Package httputil holds the HTTP helpers shared by the viewer and the
// HTTP cloud store.
package httputil

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// Doer is the part of *http.Client the cloud store uses. Tests substitute
// StubDoer.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StubResponse is a canned reply served by StubDoer.
type StubResponse struct {
	Status int
	Body   []byte
	Header http.Header
	Err    error
}

// StubDoer answers requests from a URL-keyed table and records every
// request it sees. Unknown URLs get an empty 404.
type StubDoer struct {
	mu        sync.Mutex
	responses map[string]StubResponse
	requests  []*http.Request
}

func NewStubDoer() *StubDoer {
	return &StubDoer{responses: make(map[string]StubResponse)}
}

// Handle registers the response for url and returns s for chaining.
func (s *StubDoer) Handle(url string, r StubResponse) *StubDoer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[url] = r
	return s
}

func (s *StubDoer) Do(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	r, ok := s.responses[req.URL.String()]
	if !ok {
		r = StubResponse{Status: http.StatusNotFound}
	}
	if r.Err != nil {
		return nil, r.Err
	}
	header := r.Header
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		StatusCode:    r.Status,
		Status:        http.StatusText(r.Status),
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Header:        header,
		Request:       req,
	}, nil
}

// Requests returns the recorded requests in order.
func (s *StubDoer) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}
