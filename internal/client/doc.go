// Package client implements the two book-search form handlers as a Go
// library: a multipart file upload to /upload and a query search against
// /search whose results are rendered one paragraph per element. The
// handlers are driven by the CLI, the wasm DOM binding and the tests
// through the View interface.
package client
