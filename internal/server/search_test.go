package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestSearchHandler(t *testing.T) {
	hits := []SearchHit{
		{Title: "Pride and Prejudice", Snippet: "a truth universally acknowledged", Rank: 0.9},
		{Title: "Emma", Snippet: "handsome, clever, and rich", Rank: 0.5},
		{Title: "Persuasion", Rank: 0.4},
		{Title: "Sanditon", Snippet: "a fragment", Rank: 0.1},
	}

	tests := []struct {
		name      string
		rawQuery  string
		wantCode  int
		want      []string
		wantLimit int
		wantQuery string
	}{
		{
			name:      "default limit",
			rawQuery:  "query=truth",
			wantCode:  http.StatusOK,
			want:      []string{"Pride and Prejudice: a truth universally acknowledged", "Emma: handsome, clever, and rich", "Persuasion"},
			wantLimit: 3,
			wantQuery: "truth",
		},
		{
			name:      "explicit limit",
			rawQuery:  "query=truth&limit=1",
			wantCode:  http.StatusOK,
			want:      []string{"Pride and Prejudice: a truth universally acknowledged"},
			wantLimit: 1,
			wantQuery: "truth",
		},
		{
			name:      "limit capped",
			rawQuery:  "query=truth&limit=500",
			wantCode:  http.StatusOK,
			want:      []string{"Pride and Prejudice: a truth universally acknowledged", "Emma: handsome, clever, and rich", "Persuasion", "Sanditon: a fragment"},
			wantLimit: MaxSearchLimit,
			wantQuery: "truth",
		},
		{
			name:      "encoded text decoded",
			rawQuery:  url.Values{"query": {"cats & dogs #1 100%"}}.Encode(),
			wantCode:  http.StatusOK,
			want:      []string{"Pride and Prejudice: a truth universally acknowledged", "Emma: handsome, clever, and rich", "Persuasion"},
			wantLimit: 3,
			wantQuery: "cats & dogs #1 100%",
		},
		{
			name:     "empty query",
			rawQuery: "query=",
			wantCode: http.StatusOK,
			want:     []string{},
		},
		{
			name:     "blank query",
			rawQuery: "query=+++",
			wantCode: http.StatusOK,
			want:     []string{},
		},
		{name: "missing query", rawQuery: "", wantCode: http.StatusBadRequest},
		{name: "bad limit", rawQuery: "query=x&limit=abc", wantCode: http.StatusBadRequest},
		{name: "zero limit", rawQuery: "query=x&limit=0", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := newMemDocuments()
			docs.hits = hits
			s := newTestServer(t, Config{Documents: docs})

			req := httptest.NewRequest(http.MethodGet, "/search?"+tt.rawQuery, nil)
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("Expected %d, got %d: %s", tt.wantCode, rr.Code, rr.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			var got []string
			if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v (body %q)", err, rr.Body.String())
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d results %q, want %q", len(got), got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("result %d = %q, want %q", i, got[i], tt.want[i])
				}
			}

			if len(tt.want) == 0 {
				if docs.searched != 0 {
					t.Errorf("Expected store not to be queried, got %d calls", docs.searched)
				}
				return
			}
			if docs.lastLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", docs.lastLimit, tt.wantLimit)
			}
			if docs.lastQuery != tt.wantQuery {
				t.Errorf("query = %q, want %q", docs.lastQuery, tt.wantQuery)
			}
		})
	}
}

func TestSearchHandler_ConfiguredLimit(t *testing.T) {
	docs := newMemDocuments()
	s := newTestServer(t, Config{Documents: docs, SearchLimit: 7})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/search?query=whale", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if docs.lastLimit != 7 {
		t.Errorf("limit = %d, want 7", docs.lastLimit)
	}
	if got := rr.Body.String(); got != "[]\n" {
		t.Errorf("Expected empty array, got %q", got)
	}
}

func TestSearchHandler_StoreError(t *testing.T) {
	docs := newMemDocuments()
	docs.searchErr = errors.New("relation \"documents\" does not exist")
	s := newTestServer(t, Config{Documents: docs})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/search?query=whale", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
}

func TestSearchHandler_InvalidMethod(t *testing.T) {
	s := newTestServer(t, Config{})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/search?query=x", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rr.Code)
	}
}

func TestSearchHit_String(t *testing.T) {
	if got := (SearchHit{Title: "Emma", Snippet: "rich"}).String(); got != "Emma: rich" {
		t.Errorf("got %q", got)
	}
	if got := (SearchHit{Title: "Emma"}).String(); got != "Emma" {
		t.Errorf("got %q", got)
	}
}
