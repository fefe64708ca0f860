package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// uploadResp is the JSON response returned after a successful upload.
type uploadResp struct {
	ID        string `json:"id"`
	ObjectKey string `json:"object_key"`
	OrigName  string `json:"orig_name"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256Hex string `json:"sha256_hex"`
	Documents int    `json:"documents"`
	Status    string `json:"status"`
}

// objectKey is where an upload's raw bytes live in the bucket.
func objectKey(id uuid.UUID) string {
	return "uploads/" + id.String()
}

// tooLarge reports whether err came from the request body limit.
func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// uploadHandler handles POST /upload. It reads the multipart part named
// "file", extracts its text documents, stores the raw bytes in the object
// store and records the upload and documents for search.
func (cfg Config) uploadHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		start := time.Now()
		log := requestLogger(cfg.Logger, r)
		if cfg.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes)
		}

		fail := func(reason, msg string, code int) {
			cfg.Metrics.RecordUploadError(reason)
			http.Error(w, msg, code)
		}

		mr, err := r.MultipartReader()
		if err != nil {
			fail("bad_multipart", "bad multipart", http.StatusBadRequest)
			return
		}

		part, err := filePart(mr)
		if err != nil {
			if tooLarge(err) {
				fail("too_large", "file too large", http.StatusRequestEntityTooLarge)
				return
			}
			fail("bad_multipart", "bad multipart", http.StatusBadRequest)
			return
		}
		if part == nil || part.FileName() == "" {
			fail("missing_file", "missing file", http.StatusBadRequest)
			return
		}
		defer func() { _ = part.Close() }()

		name := SanitizeFilename(part.FileName())
		contentType := part.Header.Get("Content-Type")
		if err := ValidateUpload(name, contentType); err != nil {
			log.Info("upload rejected", zap.String("name", name), zap.Error(err))
			fail("unsupported_type", "unsupported file type", http.StatusUnsupportedMediaType)
			return
		}

		sf, err := spool(part)
		if err != nil {
			if tooLarge(err) {
				fail("too_large", "file too large", http.StatusRequestEntityTooLarge)
				return
			}
			log.Error("spool upload", zap.Error(err))
			fail("read", "could not read upload", http.StatusBadRequest)
			return
		}
		defer func() { _ = sf.Close() }()

		if sf.size == 0 {
			fail("empty_file", "empty file", http.StatusBadRequest)
			return
		}

		docs, err := extractDocuments(name, sf.Reader(), sf.size, extractLimit(cfg.MaxUploadBytes))
		if errors.Is(err, errExtractLimit) {
			log.Info("extract limit", zap.String("name", name), zap.Error(err))
			fail("extract_limit", "extracted text too large", http.StatusRequestEntityTooLarge)
			return
		}
		if err != nil {
			log.Info("extract failed", zap.String("name", name), zap.Error(err))
			fail("extract", "could not extract text", http.StatusUnprocessableEntity)
			return
		}
		if len(docs) == 0 {
			fail("no_documents", errNoDocuments.Error(), http.StatusUnprocessableEntity)
			return
		}

		id := uuid.New()
		up := Upload{
			ID:          id,
			ObjectKey:   objectKey(id),
			OrigName:    name,
			ContentType: storedContentType(name, contentType),
			SizeBytes:   sf.size,
			SHA256Hex:   sf.sha256Hex,
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		if err := cfg.Objects.PutObject(ctx, up.ObjectKey, sf.Reader(), up.SizeBytes, up.ContentType); err != nil {
			log.Error("putobject", zap.String("key", up.ObjectKey), zap.Error(err))
			fail("storage", "upload failed", http.StatusBadGateway)
			return
		}

		if err := cfg.Documents.SaveUpload(ctx, up, docs); err != nil {
			log.Error("save upload", zap.String("id", id.String()), zap.Error(err))
			// The object is unreachable without its row.
			if rerr := cfg.Objects.RemoveObject(context.WithoutCancel(ctx), up.ObjectKey); rerr != nil {
				log.Warn("remove orphaned object", zap.String("key", up.ObjectKey), zap.Error(rerr))
			}
			fail("db", "db error", http.StatusInternalServerError)
			return
		}

		cfg.Metrics.RecordUpload(up.SizeBytes, len(docs), time.Since(start))
		log.Info("upload indexed",
			zap.String("id", id.String()),
			zap.String("name", name),
			zap.Int64("size", up.SizeBytes),
			zap.Int("documents", len(docs)),
		)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(uploadResp{
			ID:        id.String(),
			ObjectKey: up.ObjectKey,
			OrigName:  up.OrigName,
			SizeBytes: up.SizeBytes,
			SHA256Hex: up.SHA256Hex,
			Documents: len(docs),
			Status:    "indexed",
		})
	})
}

// filePart advances mr to the part named "file". It returns nil, nil when
// the body has no such part.
func filePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
		_ = part.Close()
	}
}

// storedContentType prefers the client's type unless it is the generic
// octet-stream one, in which case the extension decides.
func storedContentType(name, clientType string) string {
	if m := baseMime(clientType); m != "" && m != "application/octet-stream" {
		return clientType
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
