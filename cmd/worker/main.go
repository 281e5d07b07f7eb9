package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/keyword-intelligence/internal/bootstrap"
	"github.com/kirillkom/keyword-intelligence/internal/config"
	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
	"github.com/kirillkom/keyword-intelligence/internal/observability/logging"
)

func main() {
	cfg, err := config.LoadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	service := cfg.ServiceName + "-worker"
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker, err := bootstrap.NewWorker(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer worker.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           worker.Metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = worker.Queue.SubscribeRecords(ctx, func(handlerCtx context.Context, record domain.ExtractionRecord) error {
		start := worker.Metrics.StartRecord(record)
		archiveCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()

		err := worker.Archive.Archive(archiveCtx, record)
		worker.Metrics.FinishRecord(start, err)
		if err == nil {
			logger.Info("record_archived", "record_id", record.ID)
		}
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
