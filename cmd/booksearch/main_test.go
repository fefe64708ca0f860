package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"book-search/internal/client"
)

// fakeBackend answers /search with fixed results and records uploads.
type fakeBackend struct {
	mu      sync.Mutex
	uploads map[string]string
	queries []string
}

func newFakeBackend(t *testing.T, results []string) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{uploads: map[string]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.queries = append(fb.queries, r.URL.Query().Get("query"))
		fb.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(results)
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		if strings.HasSuffix(hdr.Filename, ".exe") {
			http.Error(w, "unsupported file type", http.StatusUnsupportedMediaType)
			return
		}
		fb.mu.Lock()
		fb.uploads[hdr.Filename] = string(b)
		fb.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":"indexed"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fb, srv
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSearch_Formats(t *testing.T) {
	results := []string{"Emma: handsome, clever, and rich", "<b>Persuasion</b>"}

	tests := []struct {
		format string
		want   []string
	}{
		{"table", []string{"Emma: handsome, clever, and rich", "<b>Persuasion</b>", "Result"}},
		{"json", []string{`"Emma: handsome, clever, and rich"`, `"\u003cb\u003ePersuasion\u003c/b\u003e"`}},
		{"html", []string{"<p>Emma: handsome, clever, and rich</p>", "<p>&lt;b&gt;Persuasion&lt;/b&gt;</p>"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			fb, srv := newFakeBackend(t, results)
			stdout, stderr, err := runCLI(t, "search", "emma", "woodhouse", "--server", srv.URL, "--format", tt.format)
			if err != nil {
				t.Fatalf("search: %v (stderr %q)", err, stderr)
			}
			for _, w := range tt.want {
				if !strings.Contains(stdout, w) {
					t.Errorf("output missing %q:\n%s", w, stdout)
				}
			}
			if len(fb.queries) != 1 || fb.queries[0] != "emma woodhouse" {
				t.Errorf("queries = %q", fb.queries)
			}
		})
	}
}

func TestSearch_UnknownFormat(t *testing.T) {
	_, srv := newFakeBackend(t, nil)
	if _, _, err := runCLI(t, "search", "x", "--server", srv.URL, "--format", "yaml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, stderr, err := runCLI(t, "search", "x", "--server", srv.URL)
	var shown *shownError
	if !errors.As(err, &shown) {
		t.Fatalf("expected shown error, got %v", err)
	}
	var se *client.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected StatusError 500, got %v", err)
	}
	if !strings.Contains(stderr, "db error") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestSearch_HTMLErrorOnStderr(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	stdout, stderr, err := runCLI(t, "search", "x", "--server", srv.URL, "--format", "html")
	if err == nil {
		t.Fatal("expected error for failed search")
	}
	if stdout != "" {
		t.Errorf("Expected nothing on stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, `<p class="error">`) || !strings.Contains(stderr, "db error") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestUpload_Concurrent(t *testing.T) {
	fb, srv := newFakeBackend(t, nil)
	dir := t.TempDir()

	var paths []string
	for i, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt", "f.txt"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(strings.Repeat("x", i+1)), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}

	stdout, stderr, err := runCLI(t, append([]string{"upload", "--server", srv.URL}, paths...)...)
	if err != nil {
		t.Fatalf("upload: %v (stderr %q)", err, stderr)
	}
	if len(fb.uploads) != len(paths) {
		t.Errorf("Expected %d uploads, got %d", len(paths), len(fb.uploads))
	}
	if fb.uploads["c.txt"] != "xxx" {
		t.Errorf("c.txt content = %q", fb.uploads["c.txt"])
	}
	if got := strings.Count(stdout, `{"status":"indexed"}`); got != len(paths) {
		t.Errorf("Expected %d response lines, got %d:\n%s", len(paths), got, stdout)
	}
}

func TestUpload_PartialFailure(t *testing.T) {
	fb, srv := newFakeBackend(t, nil)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.txt")
	bad := filepath.Join(dir, "bad.exe")
	missing := filepath.Join(dir, "missing.txt")
	_ = os.WriteFile(good, []byte("ok"), 0o644)
	_ = os.WriteFile(bad, []byte("MZ"), 0o644)

	_, stderr, err := runCLI(t, "upload", "--server", srv.URL, good, bad, missing)
	if err == nil || !strings.Contains(err.Error(), "2 of 3 uploads failed") {
		t.Fatalf("expected 2 failures, got %v", err)
	}
	if _, ok := fb.uploads["good.txt"]; !ok {
		t.Error("good.txt should still be uploaded")
	}
	for _, want := range []string{bad + ": error:", missing + ": error:"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestServerFlag_Env(t *testing.T) {
	t.Setenv(serverEnv, "http://books.internal:9000")
	cmd := newRootCmd()
	if got := cmd.PersistentFlags().Lookup("server").DefValue; got != "http://books.internal:9000" {
		t.Errorf("server default = %q", got)
	}
}
