package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"book-search/internal/config"
	"book-search/internal/db"
	"book-search/internal/logging"
	"book-search/internal/server"
)

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "backend: load config: %v\n", err)
		os.Exit(1)
	}

	base, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backend: logger: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Service(base, "backend")
	defer func() { _ = logger.Sync() }()

	for _, w := range cfg.Warnings() {
		logger.Warn("config", zap.String("warning", w))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("exiting", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// run connects the stores, serves until ctx is done, then shuts down
// within cfg.ShutdownTimeout.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	dbConn, err := server.OpenDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer func() { _ = dbConn.Close() }()

	logger.Info("running migrations")
	if err := db.RunMigrations(dbConn); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	logger.Info("migrations complete")

	objects, err := server.NewMinioStore(ctx, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.Bucket)
	if err != nil {
		return fmt.Errorf("object store: %w", err)
	}

	srv, err := server.New(serverConfig(cfg, logger, objects, server.NewPostgresStore(dbConn)))
	if err != nil {
		return err
	}

	// Start the HTTP server in a background goroutine.
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting",
			zap.String("addr", cfg.Addr),
			zap.String("version", cfg.Version),
			zap.String("commit", cfg.Commit),
			zap.String("env", cfg.Env),
		)
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("shutdown complete")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	}
}

// serverConfig maps the process configuration onto the HTTP server.
func serverConfig(cfg *config.Config, logger *zap.Logger, objects server.ObjectStore, documents server.DocumentStore) server.Config {
	return server.Config{
		Addr: cfg.Addr,
		Build: server.BuildInfo{
			Version: cfg.Version,
			Commit:  cfg.Commit,
		},
		Objects:        objects,
		Documents:      documents,
		Logger:         logger,
		Metrics:        server.NewMetrics(nil),
		MaxUploadBytes: cfg.MaxUploadBytes,
		SearchLimit:    cfg.SearchLimit,
		RateLimit:      cfg.RateLimit,
		RateWindow:     cfg.RateWindow,
		WebUIDir:       cfg.WebUIDir,
	}
}
