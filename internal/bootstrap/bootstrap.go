package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/keyword-intelligence/internal/config"
	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
	"github.com/kirillkom/keyword-intelligence/internal/core/ports"
	"github.com/kirillkom/keyword-intelligence/internal/core/usecase"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/dataset/memory"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/extractor"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/nlp/chunker"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/nlp/lexical"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/nlp/semantic"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/nlp/zeroshot"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/queue/nats"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/resilience"
	"github.com/kirillkom/keyword-intelligence/internal/observability/metrics"
)

// App is the extraction pipeline shared by the HTTP API and the MCP server.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Metrics      *metrics.HTTPServerMetrics
	Registry     *usecase.ModelRegistry
	Dataset      *memory.Dataset
	Orchestrator *usecase.Orchestrator
	Documents    *usecase.DocumentExtractUseCase

	closeFn func()
}

// New builds every stage and loads its model. It fails only when a mandatory
// model cannot load; optional stages stay unavailable and are logged.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	httpMetrics := metrics.NewHTTPServerMetrics(cfg.ServiceName)
	policy := resilienceConfig(cfg)
	policy.Logger = logger
	policy.OnBreakerChange = httpMetrics.SetBreakerOpen
	executor := resilience.NewExecutor(policy)

	ollamaClient := ollama.New(cfg.OllamaURL, time.Duration(cfg.OllamaTimeoutSeconds)*time.Second, executor)
	keyphraseEmbedder := ollama.NewEmbedder(ollamaClient, cfg.OllamaEmbedModel)
	classifierEmbedder := keyphraseEmbedder
	if cfg.ClassifierEmbedModel != cfg.OllamaEmbedModel {
		classifierEmbedder = ollama.NewEmbedder(ollamaClient, cfg.ClassifierEmbedModel)
	}

	labels := cfg.TopicLabels
	if len(labels) == 0 {
		labels = domain.DefaultTopicLabels
	}

	scorer := lexical.NewScorer()
	phrases := chunker.New(domain.MaxPhrases)
	keyphrases := semantic.NewExtractor(keyphraseEmbedder, cfg.OllamaEmbedModel, semantic.Options{})
	summarizer := ollama.NewSummarizer(ollamaClient, cfg.OllamaGenModel).WithLogger(logger)
	classifier := zeroshot.NewClassifier(classifierEmbedder, cfg.ClassifierEmbedModel, labels)

	registry := usecase.NewModelRegistry(time.Duration(cfg.ModelLoadTimeoutSeconds)*time.Second, logger)
	registry.Register(domain.StageLexical, scorer, true)
	registry.Register(domain.StageSemantic, keyphrases, false)
	registry.Register(domain.StagePhrases, phrases, true)
	registry.Register(domain.StageSummary, summarizer, false)
	registry.Register(domain.StageTopic, classifier, false)

	if err := registry.Load(ctx); err != nil {
		return nil, fmt.Errorf("load models: %w", err)
	}
	httpMetrics.SetReadiness(registry.Readiness())

	stages := []ports.AnalysisStage{
		usecase.NewLexicalStage(registry, scorer),
		usecase.NewSemanticStage(registry, keyphrases),
		usecase.NewPhrasesStage(registry, phrases),
		usecase.NewSummaryStage(registry, summarizer),
		usecase.NewTopicStage(registry, classifier, labels),
	}

	dataset := memory.NewDataset()
	closeFn := func() {}
	var publisher ports.RecordPublisher
	if cfg.ArchiveEnabled {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ClientName:         cfg.ServiceName + "-api",
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init record publisher: %w", err)
		}
		publisher = queue
		closeFn = queue.Close
	}

	orchestrator := usecase.NewOrchestrator(
		usecase.NewValidator(domain.TextLimits{MinLength: cfg.MinTextLength, MaxLength: cfg.MaxTextLength}),
		stages,
		usecase.OrchestratorOptions{
			Parallel:     cfg.StageParallel,
			StageTimeout: time.Duration(cfg.StageTimeoutSeconds) * time.Second,
			Dataset:      dataset,
			Publisher:    publisher,
			Observer:     httpMetrics,
			Logger:       logger,
		},
	)
	documents := usecase.NewDocumentExtractUseCase(
		extractor.NewSelector(pdf.NewExtractor(), plaintext.NewExtractor()),
		orchestrator,
		cfg.MaxUploadBytes,
	)

	return &App{
		Config:       cfg,
		Logger:       logger,
		Metrics:      httpMetrics,
		Registry:     registry,
		Dataset:      dataset,
		Orchestrator: orchestrator,
		Documents:    documents,
		closeFn:      closeFn,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// Worker archives records published by the API into Postgres.
type Worker struct {
	Config  config.Config
	Queue   *nats.Queue
	Archive *usecase.ArchiveRecordUseCase
	Metrics *metrics.WorkerMetrics

	closeFn func()
}

func NewWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Worker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewRecordRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	policy := resilienceConfig(cfg)
	policy.Logger = logger
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ClientName:         cfg.ServiceName + "-worker",
		ResilienceExecutor: resilience.NewExecutor(policy),
		Logger:             logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	return &Worker{
		Config:  cfg,
		Queue:   queue,
		Archive: usecase.NewArchiveRecordUseCase(repo),
		Metrics: metrics.NewWorkerMetrics(cfg.ServiceName + "-worker"),
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func resilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	if cfg.ResilienceRetryMaxAttempts > 0 {
		out.RetryMaxAttempts = cfg.ResilienceRetryMaxAttempts
	}
	if cfg.ResilienceRetryInitialBackoffMS > 0 {
		out.RetryInitialBackoff = time.Duration(cfg.ResilienceRetryInitialBackoffMS) * time.Millisecond
	}
	if cfg.ResilienceRetryMaxBackoffMS > 0 {
		out.RetryMaxBackoff = time.Duration(cfg.ResilienceRetryMaxBackoffMS) * time.Millisecond
	}
	out.BreakerEnabled = cfg.ResilienceBreakerEnabled
	if cfg.ResilienceBreakerMinRequests > 0 {
		out.BreakerMinRequests = uint32(cfg.ResilienceBreakerMinRequests)
	}
	if cfg.ResilienceBreakerFailureRatio > 0 {
		out.BreakerFailureRatio = cfg.ResilienceBreakerFailureRatio
	}
	if cfg.ResilienceBreakerOpenTimeoutSec > 0 {
		out.BreakerOpenTimeout = time.Duration(cfg.ResilienceBreakerOpenTimeoutSec) * time.Second
	}
	return out
}
