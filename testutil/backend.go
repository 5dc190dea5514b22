package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// RecordedFile is one uploaded multipart file
type RecordedFile struct {
	Filename string
	Data     []byte
}

// RecordedRequest is what the fake backend saw for one call
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Fields map[string][]string
	Files  map[string][]RecordedFile
	JSON   map[string]interface{}
}

type cannedResponse struct {
	status int
	body   interface{}
}

// FakeBackend is an httptest server standing in for the attendance API.
// Paths are relative to the server root, e.g. "/api/enroll/".
type FakeBackend struct {
	Server *httptest.Server

	mu        sync.Mutex
	requests  []RecordedRequest
	responses map[string]cannedResponse
}

// NewFakeBackend starts a fake backend that is closed when the test ends
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{responses: make(map[string]cannedResponse)}
	fb.Server = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.Server.Close)
	return fb
}

// APIURL returns the API base URL with a trailing slash
func (fb *FakeBackend) APIURL() string {
	return fb.Server.URL + "/api/"
}

// Respond registers the response for path. A []byte body is written raw,
// anything else as JSON.
func (fb *FakeBackend) Respond(path string, status int, body interface{}) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.responses[path] = cannedResponse{status: status, body: body}
}

// Requests returns every recorded request
func (fb *FakeBackend) Requests() []RecordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]RecordedRequest, len(fb.requests))
	copy(out, fb.requests)
	return out
}

// Count returns how many requests hit path
func (fb *FakeBackend) Count(path string) int {
	n := 0
	for _, r := range fb.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

func (fb *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	rec := RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Fields: map[string][]string{},
		Files:  map[string][]RecordedFile{},
	}

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(32 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				rec.Fields[k] = v
			}
			for field, headers := range r.MultipartForm.File {
				for _, fh := range headers {
					f, err := fh.Open()
					if err != nil {
						continue
					}
					data, _ := io.ReadAll(f)
					f.Close()
					rec.Files[field] = append(rec.Files[field], RecordedFile{Filename: fh.Filename, Data: data})
				}
			}
		}
	case strings.HasPrefix(contentType, "application/json"):
		_ = json.NewDecoder(r.Body).Decode(&rec.JSON)
	}

	fb.mu.Lock()
	fb.requests = append(fb.requests, rec)
	resp, ok := fb.responses[r.URL.Path]
	fb.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if raw, isRaw := resp.body.([]byte); isRaw {
		w.WriteHeader(resp.status)
		_, _ = w.Write(raw)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_ = json.NewEncoder(w).Encode(resp.body)
}
