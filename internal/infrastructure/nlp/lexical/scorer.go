package lexical

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

// Scorer weights n-grams by TF-IDF over a corpus made of the input document alone.
// With one document and smoothed idf every term gets idf 1, so the weight reduces
// to the L2-normalised term count.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

func (s *Scorer) Name() string {
	return "tfidf-english"
}

// Load checks the builtin vocabulary filter is usable.
func (s *Scorer) Load(context.Context) error {
	if StopWordCount() == 0 {
		return errors.New("empty stop-word list")
	}
	return nil
}

func (s *Scorer) Score(text string, ngramMin, ngramMax, topN int) []domain.ScoredPhrase {
	tokens := ContentTokens(text)
	if topN <= 0 || len(tokens) < ngramMin {
		return []domain.ScoredPhrase{}
	}

	counts := make(map[string]float64)
	for _, gram := range NGrams(tokens, ngramMin, ngramMax) {
		counts[gram]++
	}
	if len(counts) == 0 {
		return []domain.ScoredPhrase{}
	}

	const idf = 1.0 // ln((1+1)/(1+1)) + 1
	var norm float64
	for _, c := range counts {
		norm += (c * idf) * (c * idf)
	}
	norm = math.Sqrt(norm)

	out := make([]domain.ScoredPhrase, 0, len(counts))
	for gram, c := range counts {
		out = append(out, domain.ScoredPhrase{Phrase: gram, Score: c * idf / norm})
	}
	SortScored(out)
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// SortScored orders by descending score, ties by ascending phrase text.
func SortScored(items []domain.ScoredPhrase) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Phrase < items[j].Phrase
	})
}
