// Package config defines the backend configuration and how it is loaded.
//
// Precedence (low -> high): defaults from New, an optional YAML file named
// by BS_CONFIG, then BS_* environment variables.
package config

import "time"

// Config is the backend process configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL is the Postgres connection string.
	DatabaseURL string `koanf:"database_url"`

	// S3 / MinIO object storage for uploaded files.
	S3Endpoint  string `koanf:"s3_endpoint"`
	S3AccessKey string `koanf:"s3_access_key"`
	S3SecretKey string `koanf:"s3_secret_key"`
	Bucket      string `koanf:"bucket"`

	// MaxUploadBytes caps a single upload body. 0 means no limit.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// SearchLimit is the number of results returned when the request does
	// not ask for a limit.
	SearchLimit int `koanf:"search_limit"`

	// RateLimit requests per RateWindow per client IP. 0 disables limiting.
	RateLimit  int           `koanf:"rate_limit"`
	RateWindow time.Duration `koanf:"rate_window"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
	Env       string `koanf:"env"`

	// WebUIDir optionally holds webui.wasm and wasm_exec.js, served under /webui/.
	WebUIDir string `koanf:"webui_dir"`

	Version string `koanf:"version"`
	Commit  string `koanf:"commit"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:            ":8080",
		Bucket:          "books",
		MaxUploadBytes:  64 << 20,
		SearchLimit:     3,
		RateLimit:       120,
		RateWindow:      time.Minute,
		LogLevel:        "info",
		LogFormat:       "text",
		Env:             "development",
		Version:         "dev",
		Commit:          "unknown",
		ShutdownTimeout: 5 * time.Second,
	}
}
