package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/felixgeelhaar/parsons/internal/app"
	"github.com/felixgeelhaar/parsons/internal/config"
	"github.com/felixgeelhaar/parsons/internal/daemon"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	pidFileName   = "parsonsd.pid"
	shutdownGrace = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	dir, err := config.EnsureParsonsDir()
	if err != nil {
		return fmt.Errorf("ensure parsons dir: %w", err)
	}
	if err := config.LoadDotEnv(".env", filepath.Join(dir, ".env")); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logFile, err := setupLogging(dir, parseLogLevel(cfg.Daemon.LogLevel))
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logFile.Close()
	slog.SetDefault(logger)

	pidPath := filepath.Join(dir, pidFileName)
	if err := os.WriteFile(pidPath, fmt.Appendf(nil, "%d\n", os.Getpid()), 0644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, app.Options{Logger: logger, Consume: true})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("close app", "error", err)
		}
	}()

	server, err := daemon.NewServer(daemon.ServerConfig{
		Config:    cfg,
		Problems:  application.Problems,
		Tutor:     application.Tutor,
		Stats:     statsReader(application),
		Providers: application.LLM.List(),
		Broker:    application.Broker,
		Version:   Version,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	return serve(ctx, server, logger)
}

// serve runs server until ctx is cancelled, then drains in-flight requests
func serve(ctx context.Context, server *daemon.Server, logger *slog.Logger) error {
	errc := make(chan error, 1)
	go func() { errc <- server.Start() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("received signal, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("daemon stopped")
	return nil
}

// statsReader keeps a disabled attempt store a nil interface
func statsReader(a *app.App) daemon.StatsReader {
	if a.Attempts == nil {
		return nil
	}
	return a.Attempts
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogging tees JSON records into logs/parsonsd.log and text records
// to stderr. The caller closes the returned file.
func setupLogging(dir string, level slog.Level) (*slog.Logger, *os.File, error) {
	f, err := os.OpenFile(filepath.Join(dir, "logs", "parsonsd.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	logger := slog.New(&multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(f, opts),
		slog.NewTextHandler(os.Stderr, opts),
	}})
	return logger, f, nil
}

// multiHandler fans records out to several handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			errs = append(errs, handler.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(handler slog.Handler) slog.Handler { return handler.WithAttrs(attrs) })
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	return h.each(func(handler slog.Handler) slog.Handler { return handler.WithGroup(name) })
}

func (h *multiHandler) each(fn func(slog.Handler) slog.Handler) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = fn(handler)
	}
	return &multiHandler{handlers: handlers}
}
