// Package zeroshot ranks candidate labels by comparing the text embedding
// with one hypothesis sentence per label.
package zeroshot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kirillkom/keyword-intelligence/internal/core/ports"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/nlp/semantic"
)

const HypothesisTemplate = "This text is about %s."

type Classifier struct {
	embedder ports.Embedder
	model    string
	warm     []string

	mu         sync.RWMutex
	hypotheses map[string][]float32
}

// NewClassifier builds a classifier; warmLabels are embedded on Load.
func NewClassifier(embedder ports.Embedder, model string, warmLabels []string) *Classifier {
	return &Classifier{
		embedder:   embedder,
		model:      model,
		warm:       append([]string(nil), warmLabels...),
		hypotheses: make(map[string][]float32),
	}
}

func (c *Classifier) Name() string {
	return c.model
}

// Load warms the hypothesis cache.
func (c *Classifier) Load(ctx context.Context) error {
	labels := c.warm
	if len(labels) == 0 {
		if _, err := c.embedder.EmbedQuery(ctx, fmt.Sprintf(HypothesisTemplate, "warmup")); err != nil {
			return fmt.Errorf("load classifier model %s: %w", c.model, err)
		}
		return nil
	}
	if _, err := c.hypothesisVectors(ctx, labels); err != nil {
		return fmt.Errorf("load classifier model %s: %w", c.model, err)
	}
	return nil
}

// Classify returns every label, most likely first. Equal scores keep the
// caller's label order.
func (c *Classifier) Classify(ctx context.Context, text string, labels []string) ([]string, error) {
	if len(labels) == 0 {
		return []string{}, nil
	}
	textVector, err := c.embedder.EmbedQuery(ctx, strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	vectors, err := c.hypothesisVectors(ctx, labels)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		label string
		score float64
	}
	items := make([]ranked, 0, len(labels))
	for i, label := range labels {
		items = append(items, ranked{label: label, score: semantic.CosineSimilarity(textVector, vectors[i])})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.label)
	}
	return out, nil
}

func (c *Classifier) hypothesisVectors(ctx context.Context, labels []string) ([][]float32, error) {
	out := make([][]float32, len(labels))
	missing := make([]string, 0)
	missingIdx := make([]int, 0)

	c.mu.RLock()
	for i, label := range labels {
		if vector, ok := c.hypotheses[label]; ok {
			out[i] = vector
			continue
		}
		missing = append(missing, fmt.Sprintf(HypothesisTemplate, label))
		missingIdx = append(missingIdx, i)
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		return out, nil
	}
	vectors, err := c.embedder.Embed(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("embed hypotheses: %w", err)
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("embed hypotheses: got %d vectors for %d labels", len(vectors), len(missing))
	}

	c.mu.Lock()
	for j, idx := range missingIdx {
		out[idx] = vectors[j]
		c.hypotheses[labels[idx]] = vectors[j]
	}
	c.mu.Unlock()
	return out, nil
}
