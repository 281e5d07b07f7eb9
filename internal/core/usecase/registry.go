package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
	"github.com/kirillkom/keyword-intelligence/internal/core/ports"
)

type registryEntry struct {
	handle    ports.ModelHandle
	mandatory bool
	loaded    bool
	ready     bool
	err       error
}

// ModelRegistry owns one model handle per stage kind. Handles are loaded
// once at startup and only read afterwards.
type ModelRegistry struct {
	loadTimeout time.Duration
	logger      *slog.Logger

	mu      sync.RWMutex
	entries map[domain.StageKind]*registryEntry
}

func NewModelRegistry(loadTimeout time.Duration, logger *slog.Logger) *ModelRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelRegistry{
		loadTimeout: loadTimeout,
		logger:      logger,
		entries:     make(map[domain.StageKind]*registryEntry),
	}
}

func (r *ModelRegistry) Register(kind domain.StageKind, handle ports.ModelHandle, mandatory bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[kind] = &registryEntry{handle: handle, mandatory: mandatory}
}

// Load loads every registered handle not loaded yet. A mandatory failure is
// returned; optional failures only mark the stage unavailable.
func (r *ModelRegistry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var mandatoryErrs []error
	for _, kind := range domain.StageKinds {
		entry, ok := r.entries[kind]
		if !ok || entry.loaded {
			continue
		}
		err := r.loadOne(ctx, entry)
		entry.loaded = true
		entry.ready = err == nil
		entry.err = err
		name := handleName(entry.handle)
		if err == nil {
			r.logger.Info("model_loaded", "stage", kind, "model", name)
			continue
		}
		if entry.mandatory {
			r.logger.Error("model_load_failed", "stage", kind, "model", name, "error", err)
			mandatoryErrs = append(mandatoryErrs, fmt.Errorf("stage %s: %w", kind, err))
			continue
		}
		r.logger.Warn("model_unavailable", "stage", kind, "model", name, "error", err)
	}

	if len(mandatoryErrs) > 0 {
		return domain.WrapError(domain.ErrModelUnavailable, "load mandatory models", errors.Join(mandatoryErrs...))
	}
	return nil
}

func (r *ModelRegistry) loadOne(ctx context.Context, entry *registryEntry) (err error) {
	if entry.handle == nil {
		return errors.New("no model handle")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while loading: %v", rec)
		}
	}()
	loadCtx := ctx
	if r.loadTimeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, r.loadTimeout)
		defer cancel()
	}
	return entry.handle.Load(loadCtx)
}

func (r *ModelRegistry) IsReady(kind domain.StageKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[kind]
	return ok && entry.ready
}

func (r *ModelRegistry) Get(kind domain.StageKind) (ports.ModelHandle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[kind]
	if !ok {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "get model", fmt.Errorf("stage %s has no model", kind))
	}
	if !entry.ready {
		cause := entry.err
		if cause == nil {
			cause = errors.New("not loaded")
		}
		return nil, domain.WrapError(domain.ErrModelUnavailable, fmt.Sprintf("get model for stage %s", kind), cause)
	}
	return entry.handle, nil
}

func (r *ModelRegistry) Readiness() []domain.StageReadiness {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.StageReadiness, 0, len(r.entries))
	for _, kind := range domain.StageKinds {
		entry, ok := r.entries[kind]
		if !ok {
			continue
		}
		item := domain.StageReadiness{
			Stage:     kind,
			Ready:     entry.ready,
			Mandatory: entry.mandatory,
		}
		item.Model = handleName(entry.handle)
		if entry.err != nil {
			item.Error = entry.err.Error()
		}
		out = append(out, item)
	}
	return out
}

func handleName(handle ports.ModelHandle) string {
	if handle == nil {
		return ""
	}
	return handle.Name()
}
