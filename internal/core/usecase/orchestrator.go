package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
	"github.com/kirillkom/keyword-intelligence/internal/core/ports"
)

const (
	StageStatusOK          = "ok"
	StageStatusUnavailable = "unavailable"
	StageStatusFailed      = "failed"
)

type OrchestratorOptions struct {
	Parallel     bool
	StageTimeout time.Duration
	Dataset      ports.SessionDataset
	Publisher    ports.RecordPublisher
	Observer     ports.StageObserver
	Logger       *slog.Logger
}

// Orchestrator runs every analysis stage over a validated request and merges
// the results into one record. A failing stage never fails the run.
type Orchestrator struct {
	validator *Validator
	stages    []ports.AnalysisStage

	parallel     bool
	stageTimeout time.Duration
	dataset      ports.SessionDataset
	publisher    ports.RecordPublisher
	observer     ports.StageObserver
	logger       *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewOrchestrator(validator *Validator, stages []ports.AnalysisStage, opts OrchestratorOptions) *Orchestrator {
	if validator == nil {
		validator = NewValidator(domain.DefaultTextLimits())
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		validator:    validator,
		stages:       stages,
		parallel:     opts.Parallel,
		stageTimeout: opts.StageTimeout,
		dataset:      opts.Dataset,
		publisher:    opts.Publisher,
		observer:     opts.Observer,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
	}
}

// Extract validates raw and runs the pipeline. The only error is a
// *domain.ValidationError.
func (o *Orchestrator) Extract(ctx context.Context, raw domain.RawRequest, opts domain.RunOptions) (domain.ExtractionRecord, error) {
	req, err := o.validator.Validate(raw)
	if err != nil {
		return domain.ExtractionRecord{}, err
	}
	return o.Run(ctx, req, opts), nil
}

func (o *Orchestrator) Run(ctx context.Context, req domain.ExtractionRequest, opts domain.RunOptions) domain.ExtractionRecord {
	record := domain.ExtractionRecord{
		ID:        o.newID(),
		Text:      req.Text,
		CreatedAt: o.now(),
	}
	for _, kind := range domain.StageKinds {
		record.SetResult(domain.EmptyResult(kind))
	}

	results := make([]domain.StageResult, len(o.stages))
	if o.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, stage := range o.stages {
			g.Go(func() error {
				results[i] = o.runStage(gctx, stage, req)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, stage := range o.stages {
			results[i] = o.runStage(ctx, stage, req)
		}
	}
	for _, result := range results {
		record.SetResult(result)
	}

	if opts.SaveToDataset {
		o.save(ctx, record)
	}
	return record
}

// runStage is the isolation boundary: errors and panics become the stage's
// empty result.
func (o *Orchestrator) runStage(ctx context.Context, stage ports.AnalysisStage, req domain.ExtractionRequest) (result domain.StageResult) {
	kind := stage.Kind()
	started := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			err := &domain.StageError{Stage: kind, Err: fmt.Errorf("%w: panic: %v", domain.ErrStageExecution, rec)}
			o.logger.Error("stage_failed", "stage", kind, "error", err)
			result = failedResult(kind, err)
			o.observe(kind, StageStatusFailed, time.Since(started))
		}
	}()

	stageCtx := ctx
	if o.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, o.stageTimeout)
		defer cancel()
	}

	out, err := stage.Run(stageCtx, req)
	if err != nil {
		if domain.IsKind(err, domain.ErrModelUnavailable) {
			o.logger.Warn("model_unavailable", "stage", kind, "error", err)
			o.observe(kind, StageStatusUnavailable, time.Since(started))
			return failedResult(kind, err)
		}
		stageErr := &domain.StageError{Stage: kind, Err: domain.WrapError(domain.ErrStageExecution, "run stage", err)}
		o.logger.Error("stage_failed", "stage", kind, "error", stageErr)
		o.observe(kind, StageStatusFailed, time.Since(started))
		return failedResult(kind, stageErr)
	}

	out.Kind = kind
	out.Succeeded = true
	out.Err = ""
	o.observe(kind, StageStatusOK, time.Since(started))
	return out
}

func (o *Orchestrator) save(ctx context.Context, record domain.ExtractionRecord) {
	if o.dataset == nil {
		return
	}
	if err := o.dataset.Append(ctx, record); err != nil {
		o.logger.Error("dataset_append_failed", "record_id", record.ID, "error", err)
		return
	}
	if o.publisher == nil {
		return
	}
	if err := o.publisher.PublishRecord(ctx, record); err != nil {
		o.logger.Warn("record_publish_failed", "record_id", record.ID, "error", err)
	}
}

func (o *Orchestrator) observe(kind domain.StageKind, status string, duration time.Duration) {
	if o.observer != nil {
		o.observer.ObserveStage(kind, status, duration)
	}
}

func failedResult(kind domain.StageKind, err error) domain.StageResult {
	result := domain.EmptyResult(kind)
	if err != nil {
		result.Err = err.Error()
	}
	return result
}
