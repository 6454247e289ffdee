package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/felixgeelhaar/parsons/internal/app"
	"github.com/felixgeelhaar/parsons/internal/config"
	mcpserver "github.com/felixgeelhaar/parsons/internal/mcp"
)

// cmdMCP serves the tutoring tools over MCP. stdout carries the protocol,
// so logs go to ~/.parsons/logs/mcp.log.
func cmdMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	httpAddr := fs.String("http", "", "serve over HTTP on this address instead of stdio")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir, err := config.EnsureParsonsDir()
	if err != nil {
		return err
	}
	if err := config.LoadDotEnv(".env", filepath.Join(dir, ".env")); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile, err := os.OpenFile(filepath.Join(dir, "logs", "mcp.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewJSONHandler(logFile, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer a.Close()

	mcpCfg := mcpserver.Config{
		Problems: a.Problems,
		Tutor:    a.Tutor,
		Version:  Version,
	}
	if a.Attempts != nil {
		mcpCfg.Stats = a.Attempts
	}
	srv := mcpserver.NewServer(mcpCfg)

	if *httpAddr != "" {
		logger.Info("serving MCP over HTTP", "addr", *httpAddr)
		return srv.ServeHTTP(ctx, *httpAddr)
	}
	return srv.ServeStdio(ctx)
}
