// validation.go - upload filename and type checks.
package server

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// allowedMimeTypes are the client Content-Types accepted for each kind of
// indexable upload. Browsers and Go's multipart writer often send
// application/octet-stream, which is always accepted.
var allowedMimeTypes = map[string]bool{
	"text/plain":                   true,
	"text/markdown":                true,
	"text/x-markdown":              true,
	"text/html":                    true,
	"application/xhtml+xml":        true,
	"application/zip":              true,
	"application/x-zip-compressed": true,
	"application/octet-stream":     true,
}

// baseMime strips parameters like "; charset=utf-8".
func baseMime(contentType string) string {
	contentType = strings.TrimSpace(strings.ToLower(contentType))
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType)
}

// ValidateUpload checks the file extension is one text can be extracted
// from and that the client Content-Type, when present, agrees with it.
func ValidateUpload(filename, clientContentType string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !textExtensions[ext] && !htmlExtensions[ext] && ext != ".zip" {
		if ext == "" {
			return fmt.Errorf("%w: file has no extension", errUnsupportedType)
		}
		return fmt.Errorf("%w: %s", errUnsupportedType, ext)
	}

	clientMime := baseMime(clientContentType)
	if clientMime == "" || clientMime == "application/octet-stream" {
		return nil
	}
	if !allowedMimeTypes[clientMime] {
		return fmt.Errorf("%w: MIME type not allowed: %s", errUnsupportedType, clientMime)
	}

	expected := baseMime(mime.TypeByExtension(ext))
	if expected != "" && expected != clientMime && !isMimeTypeCompatible(expected, clientMime) {
		return fmt.Errorf("%w: MIME type mismatch: extension suggests %s but got %s", errUnsupportedType, expected, clientMime)
	}
	return nil
}

// isMimeTypeCompatible accepts the same major type (text/plain vs text/markdown)
// and the two zip spellings.
func isMimeTypeCompatible(expected, actual string) bool {
	if isZipMime(expected) && isZipMime(actual) {
		return true
	}
	expParts := strings.Split(expected, "/")
	actParts := strings.Split(actual, "/")
	if len(expParts) != 2 || len(actParts) != 2 {
		return false
	}
	return expParts[0] == actParts[0]
}

func isZipMime(m string) bool {
	return m == "application/zip" || m == "application/x-zip-compressed"
}

// SanitizeFilename removes potentially dangerous characters from filenames.
func SanitizeFilename(filename string) string {
	// Browsers on Windows may send a full path.
	filename = strings.ReplaceAll(filename, "\\", "/")
	if i := strings.LastIndex(filename, "/"); i >= 0 {
		filename = filename[i+1:]
	}

	filename = strings.ReplaceAll(filename, "\x00", "")
	filename = strings.Trim(filename, " .")

	if len(filename) > 255 {
		ext := filepath.Ext(filename)
		if len(ext) > 16 {
			ext = ""
		}
		filename = strings.ToValidUTF8(filename[:255-len(ext)], "") + ext
	}

	if filename == "" {
		filename = "unnamed"
	}
	return filename
}
