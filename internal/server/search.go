package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// searchHandler handles GET /search?query=<text>[&limit=n]. It answers
// with a JSON array of "title: snippet" strings, best match first.
func (cfg Config) searchHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		params := r.URL.Query()
		if !params.Has("query") {
			http.Error(w, "missing query", http.StatusBadRequest)
			return
		}
		query := strings.TrimSpace(params.Get("query"))

		limit := cfg.SearchLimit
		if raw := params.Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "bad limit", http.StatusBadRequest)
				return
			}
			limit = min(n, MaxSearchLimit)
		}

		results := []string{}
		if query != "" {
			start := time.Now()
			ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
			defer cancel()

			hits, err := cfg.Documents.Search(ctx, query, limit)
			if err != nil {
				cfg.Metrics.RecordSearchError()
				requestLogger(cfg.Logger, r).Error("search", zap.String("query", query), zap.Error(err))
				http.Error(w, "db error", http.StatusInternalServerError)
				return
			}
			for _, h := range hits {
				results = append(results, h.String())
			}
			cfg.Metrics.RecordSearch(len(results), time.Since(start))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(results)
	})
}
