package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// ValidationError is a single invalid configuration key.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// validator accumulates ValidationErrors so every problem is reported at once.
type validator struct {
	errs []error
}

func (v *validator) add(field, msg string) {
	v.errs = append(v.errs, ValidationError{Field: field, Message: msg})
}

func (v *validator) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "required value not set")
	}
}

func (v *validator) oneOf(field, value string, allowed ...string) {
	if value == "" {
		return
	}
	if !slices.Contains(allowed, value) {
		v.add(field, fmt.Sprintf("must be one of: %s (got: %s)", strings.Join(allowed, ", "), value))
	}
}

func (v *validator) addr(field, value string) {
	if value == "" {
		return
	}
	i := strings.LastIndex(value, ":")
	if i < 0 {
		v.add(field, "must be host:port or :port")
		return
	}
	port, err := strconv.Atoi(value[i+1:])
	if err != nil {
		v.add(field, "port must be a number")
		return
	}
	if port < 1 || port > 65535 {
		v.add(field, "port must be between 1 and 65535")
	}
}

func (v *validator) postgresURL(field, value string) {
	if value == "" {
		return
	}
	u, err := url.Parse(value)
	if err != nil {
		v.add(field, fmt.Sprintf("invalid URL format: %v", err))
		return
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		v.add(field, "must be a postgres:// or postgresql:// connection string")
	}
}

// Validate checks the configuration and returns every problem joined into
// one error, or nil.
func (c *Config) Validate() error {
	v := &validator{}

	v.required("addr", c.Addr)
	v.addr("addr", c.Addr)

	v.required("database_url", c.DatabaseURL)
	v.postgresURL("database_url", c.DatabaseURL)

	v.required("s3_endpoint", c.S3Endpoint)
	v.required("s3_access_key", c.S3AccessKey)
	v.required("s3_secret_key", c.S3SecretKey)
	v.required("bucket", c.Bucket)

	if c.MaxUploadBytes < 0 {
		v.add("max_upload_bytes", "must not be negative")
	}
	if c.SearchLimit <= 0 {
		v.add("search_limit", "must be a positive integer")
	}
	if c.RateLimit < 0 {
		v.add("rate_limit", "must not be negative")
	}
	if c.RateLimit > 0 && c.RateWindow <= 0 {
		v.add("rate_window", "must be positive when rate_limit is set")
	}
	if c.ShutdownTimeout <= 0 {
		v.add("shutdown_timeout", "must be positive")
	}

	v.oneOf("log_format", c.LogFormat, "json", "text")
	v.oneOf("log_level", c.LogLevel, "debug", "info", "warn", "error")
	v.oneOf("env", c.Env, "development", "staging", "production")

	return errors.Join(v.errs...)
}

// Warnings lists optional settings that are unset but recommended.
func (c *Config) Warnings() []string {
	var out []string
	if c.MaxUploadBytes == 0 {
		out = append(out, "max_upload_bytes is 0 - uploads are unbounded")
	}
	if c.RateLimit == 0 {
		out = append(out, "rate_limit is 0 - per-IP rate limiting disabled")
	}
	if c.Env == "production" && c.LogFormat != "json" {
		out = append(out, "log_format is not json in production")
	}
	return out
}
