package semantic

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
	"github.com/kirillkom/keyword-intelligence/internal/core/ports"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/nlp/lexical"
)

const (
	defaultBatchSize     = 64
	defaultMaxCandidates = 400
)

type Options struct {
	BatchSize     int
	MaxCandidates int
}

// Extractor ranks candidate n-grams by embedding similarity to the whole document.
type Extractor struct {
	embedder      ports.Embedder
	model         string
	batchSize     int
	maxCandidates int
}

func NewExtractor(embedder ports.Embedder, model string, opts Options) *Extractor {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = defaultMaxCandidates
	}
	return &Extractor{
		embedder:      embedder,
		model:         model,
		batchSize:     opts.BatchSize,
		maxCandidates: opts.MaxCandidates,
	}
}

func (e *Extractor) Name() string {
	return e.model
}

// Load issues one embedding call so a missing model is detected at startup.
func (e *Extractor) Load(ctx context.Context) error {
	if _, err := e.embedder.EmbedQuery(ctx, "keyword extraction warmup"); err != nil {
		return fmt.Errorf("load embedding model %s: %w", e.model, err)
	}
	return nil
}

func (e *Extractor) ExtractKeyphrases(ctx context.Context, text string, ngramMin, ngramMax, topN int) ([]domain.ScoredPhrase, error) {
	candidates := lexical.Candidates(text, ngramMin, ngramMax)
	if len(candidates) == 0 || topN <= 0 {
		return []domain.ScoredPhrase{}, nil
	}
	if len(candidates) > e.maxCandidates {
		candidates = candidates[:e.maxCandidates]
	}

	docVector, err := e.embedder.EmbedQuery(ctx, strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("embed document: %w", err)
	}

	scored := make([]domain.ScoredPhrase, 0, len(candidates))
	for start := 0; start < len(candidates); start += e.batchSize {
		end := min(start+e.batchSize, len(candidates))
		batch := candidates[start:end]
		vectors, err := e.embedder.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed candidates: %w", err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embed candidates: got %d vectors for %d phrases", len(vectors), len(batch))
		}
		for i, phrase := range batch {
			scored = append(scored, domain.ScoredPhrase{
				Phrase: phrase,
				Score:  CosineSimilarity(docVector, vectors[i]),
			})
		}
	}

	lexical.SortScored(scored)
	if len(scored) > topN {
		scored = scored[:topN]
	}
	return scored, nil
}
