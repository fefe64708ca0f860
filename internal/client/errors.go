package client

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse is returned when a response body is not the JSON
	// shape the handler expects.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrStaleResponse marks a search response that was discarded because a
	// newer search was submitted before it resolved.
	ErrStaleResponse = errors.New("stale response discarded")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}
