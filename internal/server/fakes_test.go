package server

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
)

// memObjects is an in-memory ObjectStore.
type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	removed []string
	putErr  error
	pingErr error
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjects) PutObject(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	m.types[key] = contentType
	return nil
}

func (m *memObjects) RemoveObject(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.removed = append(m.removed, key)
	return nil
}

func (m *memObjects) Ping(context.Context) error { return m.pingErr }

// memDocuments is an in-memory DocumentStore.
type memDocuments struct {
	mu        sync.Mutex
	uploads   []Upload
	docs      map[uuid.UUID][]Document
	hits      []SearchHit
	saveErr   error
	searchErr error
	pingErr   error

	lastQuery string
	lastLimit int
	searched  int
}

func newMemDocuments() *memDocuments {
	return &memDocuments{docs: map[uuid.UUID][]Document{}}
}

func (m *memDocuments) SaveUpload(_ context.Context, u Upload, docs []Document) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, u)
	m.docs[u.ID] = docs
	return nil
}

func (m *memDocuments) Search(_ context.Context, query string, limit int) ([]SearchHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = query
	m.lastLimit = limit
	m.searched++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if len(m.hits) > limit {
		return m.hits[:limit], nil
	}
	return m.hits, nil
}

func (m *memDocuments) Ping(context.Context) error { return m.pingErr }

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Objects == nil {
		cfg.Objects = newMemObjects()
	}
	if cfg.Documents == nil {
		cfg.Documents = newMemDocuments()
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.stop)
	return s
}

// multipartFile builds a body with one file part. An empty contentType
// leaves the part header out.
func multipartFile(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	w, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := w.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := io.WriteString(w, content); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func newUploadRequest(body io.Reader, contentType string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.RemoteAddr = "192.0.2.10:4000"
	return req
}
