package main

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"book-search/internal/config"
)

func TestServerConfig(t *testing.T) {
	cfg := config.New()
	cfg.Addr = ":9090"
	cfg.MaxUploadBytes = 1 << 20
	cfg.SearchLimit = 5
	cfg.RateLimit = 10
	cfg.RateWindow = 30 * time.Second
	cfg.WebUIDir = "/srv/webui"
	cfg.Version = "1.0.0"
	cfg.Commit = "deadbeef"

	got := serverConfig(cfg, zap.NewNop(), nil, nil)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"addr", got.Addr, ":9090"},
		{"max upload", got.MaxUploadBytes, int64(1 << 20)},
		{"search limit", got.SearchLimit, 5},
		{"rate limit", got.RateLimit, 10},
		{"rate window", got.RateWindow, 30 * time.Second},
		{"webui dir", got.WebUIDir, "/srv/webui"},
		{"version", got.Build.Version, "1.0.0"},
		{"commit", got.Build.Commit, "deadbeef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if got.Metrics == nil {
		t.Error("Expected metrics to be set")
	}
}
