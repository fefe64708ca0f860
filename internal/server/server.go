package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Search result counts: the default when a request names none, and the cap.
const (
	DefaultSearchLimit = 3
	MaxSearchLimit     = 50
)

type Config struct {
	Addr      string // e.g. ":8080"
	Build     BuildInfo
	Objects   ObjectStore
	Documents DocumentStore
	Logger    *zap.Logger
	Metrics   *Metrics

	// MaxUploadBytes caps the request body of /upload. Zero means no limit.
	MaxUploadBytes int64
	SearchLimit    int
	// RateLimit requests per RateWindow per client IP on /upload and
	// /search. Zero disables limiting.
	RateLimit  int
	RateWindow time.Duration
	// WebUIDir, when set, is served under /webui/ (wasm_exec.js, webui.wasm).
	WebUIDir string
}

// BuildInfo identifies the running binary in /health.
type BuildInfo struct {
	Version string
	Commit  string
}

type Server struct {
	cfg        Config
	httpServer *http.Server
	stop       context.CancelFunc
}

func New(cfg Config) (*Server, error) {
	if cfg.Objects == nil {
		return nil, errors.New("server: object store is required")
	}
	if cfg.Documents == nil {
		return nil, errors.New("server: document store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(prometheus.NewRegistry())
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}

	ctx, stop := context.WithCancel(context.Background())
	s := &Server{cfg: cfg, stop: stop}

	upload := cfg.uploadHandler()
	search := cfg.searchHandler()
	if cfg.RateLimit > 0 {
		upload = newRateLimiter(ctx, cfg.RateLimit, cfg.RateWindow).middleware(upload)
		search = newRateLimiter(ctx, cfg.RateLimit, cfg.RateWindow).middleware(search)
	}

	mux := http.NewServeMux()
	mux.Handle("/upload", upload)
	mux.Handle("/search", search)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/ready", s.HandleReady)
	mux.HandleFunc("/live", s.HandleLive)
	mux.Handle("/metrics", cfg.Metrics.Handler())
	if cfg.WebUIDir != "" {
		mux.Handle("/webui/", http.StripPrefix("/webui/", http.FileServer(http.Dir(cfg.WebUIDir))))
	}
	mux.Handle("/", siteHandler())

	// Wrap middleware: requestID -> logging -> security headers -> gzip -> mux
	var handler http.Handler = mux
	handler = compressionMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = loggingMiddleware(cfg.Logger, cfg.Metrics, handler)
	handler = requestIDMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          zap.NewStdLog(cfg.Logger.Named("http")),
	}
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.cfg.Logger.Info("listening", zap.String("addr", ln.Addr().String()))
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	return s.httpServer.Shutdown(ctx)
}
