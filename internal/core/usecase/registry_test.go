package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

type handleFake struct {
	name  string
	err   error
	loads int
}

func (h *handleFake) Name() string { return h.name }

func (h *handleFake) Load(context.Context) error {
	h.loads++
	return h.err
}

func TestRegistryOptionalFailureMarksUnavailable(t *testing.T) {
	registry := NewModelRegistry(0, nil)
	lexical := &handleFake{name: "tfidf"}
	summary := &handleFake{name: "gen", err: errors.New("connection refused")}
	registry.Register(domain.StageLexical, lexical, true)
	registry.Register(domain.StageSummary, summary, false)

	if err := registry.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !registry.IsReady(domain.StageLexical) || registry.IsReady(domain.StageSummary) {
		t.Fatalf("unexpected readiness %+v", registry.Readiness())
	}
	if _, err := registry.Get(domain.StageSummary); !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected model unavailable, got %v", err)
	}
	if handle, err := registry.Get(domain.StageLexical); err != nil || handle.Name() != "tfidf" {
		t.Fatalf("unexpected lexical handle %v, %v", handle, err)
	}

	readiness := registry.Readiness()
	if len(readiness) != 2 || readiness[0].Stage != domain.StageLexical || readiness[1].Error == "" {
		t.Fatalf("unexpected readiness %+v", readiness)
	}
}

func TestRegistryMandatoryFailureAbortsLoad(t *testing.T) {
	registry := NewModelRegistry(0, nil)
	registry.Register(domain.StagePhrases, &handleFake{name: "tagger", err: errors.New("model missing")}, true)

	err := registry.Load(context.Background())
	if !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected model unavailable error, got %v", err)
	}
}

func TestRegistryLoadsOnce(t *testing.T) {
	registry := NewModelRegistry(0, nil)
	handle := &handleFake{name: "tfidf"}
	registry.Register(domain.StageLexical, handle, true)
	_ = registry.Load(context.Background())
	_ = registry.Load(context.Background())
	if handle.loads != 1 {
		t.Fatalf("expected single load, got %d", handle.loads)
	}
}

func TestRegistryGetUnregistered(t *testing.T) {
	if _, err := NewModelRegistry(0, nil).Get(domain.StageTopic); !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected model unavailable, got %v", err)
	}
}
