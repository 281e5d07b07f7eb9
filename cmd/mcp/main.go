package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/kirillkom/keyword-intelligence/internal/adapters/mcp"
	"github.com/kirillkom/keyword-intelligence/internal/bootstrap"
	"github.com/kirillkom/keyword-intelligence/internal/config"
	"github.com/kirillkom/keyword-intelligence/internal/observability/logging"
)

func main() {
	cfg, err := config.LoadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	// stdout carries the protocol stream.
	logger := logging.New(os.Stderr, cfg.ServiceName+"-mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server := mcpadapter.NewServer(cfg.ServiceName, cfg.Version, app.Orchestrator)
	if err := server.ServeStdio(); err != nil {
		logger.Error("mcp_server_failed", "error", err)
	}
}
