// compression.go - gzip for JSON and page responses.
package server

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// compressionMiddleware gzips responses for clients that accept it. gzhttp
// skips small bodies and already-compressed content types on its own.
func compressionMiddleware(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}
