package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

type textExtractorFake struct {
	text string
	err  error
	got  []byte
}

func (f *textExtractorFake) Extract(_ context.Context, _, _ string, data []byte) (string, error) {
	f.got = data
	return f.text, f.err
}

func newDocumentUseCase(extractor *textExtractorFake, maxBytes int64) *DocumentExtractUseCase {
	orch := NewOrchestrator(NewValidator(domain.DefaultTextLimits()), healthyStages(), OrchestratorOptions{})
	return NewDocumentExtractUseCase(extractor, orch, maxBytes)
}

func TestExtractDocumentRunsPipelineOnExtractedText(t *testing.T) {
	extractor := &textExtractorFake{text: "  Apple unveiled a new AI chip for its laptops.\n"}
	uc := newDocumentUseCase(extractor, 1024)

	record, err := uc.ExtractDocument(context.Background(), "a.pdf", "application/pdf", strings.NewReader("%PDF-1.4"), domain.RawRequest{Text: "ignored"}, domain.RunOptions{})
	if err != nil {
		t.Fatalf("ExtractDocument() error = %v", err)
	}
	if record.Text != "Apple unveiled a new AI chip for its laptops." {
		t.Fatalf("unexpected record text %q", record.Text)
	}
	if string(extractor.got) != "%PDF-1.4" {
		t.Fatalf("extractor got %q", extractor.got)
	}
}

func TestExtractDocumentSourceFailures(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		extractor *textExtractorFake
	}{
		{name: "empty upload", body: "", extractor: &textExtractorFake{text: "whatever long enough"}},
		{name: "unreadable", body: "data", extractor: &textExtractorFake{err: errors.New("malformed xref")}},
		{name: "no text", body: "data", extractor: &textExtractorFake{text: "   "}},
		{name: "too short", body: "data", extractor: &textExtractorFake{text: "tiny"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newDocumentUseCase(tc.extractor, 1024).ExtractDocument(context.Background(), "f.txt", "text/plain", strings.NewReader(tc.body), domain.RawRequest{}, domain.RunOptions{})
			if !domain.IsKind(err, domain.ErrSourceExtraction) {
				t.Fatalf("expected source extraction error, got %v", err)
			}
		})
	}
}

func TestExtractDocumentRejectsOversizedUpload(t *testing.T) {
	_, err := newDocumentUseCase(&textExtractorFake{text: "long enough text"}, 4).ExtractDocument(context.Background(), "f.txt", "text/plain", strings.NewReader("12345"), domain.RawRequest{}, domain.RunOptions{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestExtractDocumentValidatesParams(t *testing.T) {
	topN := 0
	_, err := newDocumentUseCase(&textExtractorFake{text: "long enough text"}, 0).ExtractDocument(context.Background(), "f.txt", "text/plain", strings.NewReader("x"), domain.RawRequest{TopN: &topN}, domain.RunOptions{})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "topN" {
		t.Fatalf("expected topN rejection, got %v", err)
	}
}
