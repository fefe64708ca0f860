package server

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// ObjectStore holds the raw uploaded files.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	RemoveObject(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// DocumentStore records uploads with their extracted text and answers
// full-text searches over it.
type DocumentStore interface {
	SaveUpload(ctx context.Context, u Upload, docs []Document) error
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
	Ping(ctx context.Context) error
}

// Upload is the metadata of one stored file.
type Upload struct {
	ID          uuid.UUID
	ObjectKey   string
	OrigName    string
	ContentType string
	SizeBytes   int64
	SHA256Hex   string
}

// Document is one searchable text extracted from an upload. A zip upload
// yields one Document per text entry.
type Document struct {
	Title   string
	Content string
}

// SearchHit is one ranked search result.
type SearchHit struct {
	Title   string
	Snippet string
	Rank    float64
}

// String renders the hit the way /search returns it.
func (h SearchHit) String() string {
	if h.Snippet == "" {
		return h.Title
	}
	return h.Title + ": " + h.Snippet
}
