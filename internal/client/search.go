package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Search issues GET /search?query=<query> and returns one string per element
// of the JSON array reply. The query is percent-encoded, so the backend sees
// exactly the text that was typed.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	target := c.endpoint(SearchPath, url.Values{"query": {query}})

	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	body, err := c.do("search", req)
	if err != nil {
		return nil, err
	}
	return decodeResults(body)
}

// decodeResults turns a JSON array into display strings. String elements
// contribute their value; anything else contributes its compact JSON text.
func decodeResults(body []byte) ([]string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, fmt.Errorf("search: %w: expected a json array", ErrMalformedResponse)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return nil, fmt.Errorf("search: %w: %v", ErrMalformedResponse, err)
	}

	out := make([]string, 0, len(elems))
	for _, e := range elems {
		if len(e) > 0 && e[0] == '"' {
			var s string
			if err := json.Unmarshal(e, &s); err != nil {
				return nil, fmt.Errorf("search: %w: %v", ErrMalformedResponse, err)
			}
			out = append(out, s)
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, e); err != nil {
			return nil, fmt.Errorf("search: %w: %v", ErrMalformedResponse, err)
		}
		out = append(out, buf.String())
	}
	return out, nil
}
