package ports

import (
	"context"
	"io"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

// KeywordExtractor is the inbound contract for the text path.
type KeywordExtractor interface {
	Extract(ctx context.Context, raw domain.RawRequest, opts domain.RunOptions) (domain.ExtractionRecord, error)
}

// DocumentKeywordExtractor is the inbound contract for the document path.
// params.Text is ignored and replaced by the extracted document text.
type DocumentKeywordExtractor interface {
	ExtractDocument(ctx context.Context, filename, contentType string, body io.Reader, params domain.RawRequest, opts domain.RunOptions) (domain.ExtractionRecord, error)
}

// ReadinessReporter reports per-stage model readiness.
type ReadinessReporter interface {
	Readiness() []domain.StageReadiness
}

// DatasetReader is the read model over the session dataset.
type DatasetReader interface {
	List(ctx context.Context) ([]domain.ExtractionRecord, error)
	Len() int
}
