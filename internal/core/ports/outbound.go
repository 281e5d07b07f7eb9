package ports

import (
	"context"
	"time"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

// ModelHandle is a loaded (or loadable) model backing one stage.
type ModelHandle interface {
	Name() string
	Load(ctx context.Context) error
}

// AnalysisStage wraps exactly one model or library call.
type AnalysisStage interface {
	Kind() domain.StageKind
	Run(ctx context.Context, req domain.ExtractionRequest) (domain.StageResult, error)
}

// LexicalScorer ranks n-grams of a single document by TF-IDF weight.
type LexicalScorer interface {
	Score(text string, ngramMin, ngramMax, topN int) []domain.ScoredPhrase
}

// KeyphraseExtractor ranks candidate n-grams by embedding similarity to the document.
type KeyphraseExtractor interface {
	ExtractKeyphrases(ctx context.Context, text string, ngramMin, ngramMax, topN int) ([]domain.ScoredPhrase, error)
}

// NounPhraseParser returns noun-phrase spans in document order.
type NounPhraseParser interface {
	NounPhrases(text string) ([]string, error)
}

// TextSummarizer produces one abstractive summary bounded in tokens.
type TextSummarizer interface {
	Summarize(ctx context.Context, text string, minTokens, maxTokens int) (string, error)
}

// ZeroShotClassifier orders candidate labels by descending likelihood.
type ZeroShotClassifier interface {
	Classify(ctx context.Context, text string, labels []string) ([]string, error)
}

// Embedder builds vectors for documents and phrases.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// TextExtractor turns an uploaded document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// SessionDataset is the process-wide append-only list of saved records.
type SessionDataset interface {
	Append(ctx context.Context, record domain.ExtractionRecord) error
	List(ctx context.Context) ([]domain.ExtractionRecord, error)
	Len() int
}

// RecordPublisher announces saved records to downstream consumers.
type RecordPublisher interface {
	PublishRecord(ctx context.Context, record domain.ExtractionRecord) error
}

// RecordArchive persists records beyond the process lifetime.
type RecordArchive interface {
	Save(ctx context.Context, record domain.ExtractionRecord) error
	GetByID(ctx context.Context, id string) (*domain.ExtractionRecord, error)
}

// StageObserver receives per-stage outcomes for metrics.
type StageObserver interface {
	ObserveStage(stage domain.StageKind, status string, duration time.Duration)
}
