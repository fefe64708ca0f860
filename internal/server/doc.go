// Package server implements the book-search backend: the /upload and
// /search endpoints the page's two forms submit to, the embedded page
// itself, and health and metrics endpoints. Uploaded files are stored in
// S3-compatible object storage; their text is indexed in Postgres.
package server
