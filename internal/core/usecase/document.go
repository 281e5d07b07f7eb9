package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
	"github.com/kirillkom/keyword-intelligence/internal/core/ports"
)

// DocumentExtractUseCase reads an uploaded document, pulls its text and
// hands it to the orchestrator.
type DocumentExtractUseCase struct {
	extractor    ports.TextExtractor
	orchestrator *Orchestrator
	maxBytes     int64
}

func NewDocumentExtractUseCase(extractor ports.TextExtractor, orchestrator *Orchestrator, maxBytes int64) *DocumentExtractUseCase {
	return &DocumentExtractUseCase{
		extractor:    extractor,
		orchestrator: orchestrator,
		maxBytes:     maxBytes,
	}
}

func (uc *DocumentExtractUseCase) ExtractDocument(
	ctx context.Context,
	filename, contentType string,
	body io.Reader,
	params domain.RawRequest,
	opts domain.RunOptions,
) (domain.ExtractionRecord, error) {
	if body == nil {
		return domain.ExtractionRecord{}, domain.NewValidationError("file", "is required")
	}
	reader := body
	if uc.maxBytes > 0 {
		reader = io.LimitReader(body, uc.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return domain.ExtractionRecord{}, domain.WrapError(domain.ErrSourceExtraction, "read upload", err)
	}
	if uc.maxBytes > 0 && int64(len(data)) > uc.maxBytes {
		return domain.ExtractionRecord{}, domain.NewValidationError("file", fmt.Sprintf("exceeds %d bytes", uc.maxBytes))
	}
	if len(data) == 0 {
		return domain.ExtractionRecord{}, domain.WrapError(domain.ErrSourceExtraction, "read upload", errors.New("empty file"))
	}

	text, err := uc.extractor.Extract(ctx, filename, contentType, data)
	if err != nil {
		if domain.IsKind(err, domain.ErrSourceExtraction) {
			return domain.ExtractionRecord{}, err
		}
		return domain.ExtractionRecord{}, domain.WrapError(domain.ErrSourceExtraction, "extract text", err)
	}

	text = strings.TrimSpace(text)
	minLength := uc.orchestrator.validator.Limits().MinLength
	if length := utf8.RuneCountInString(text); length < minLength {
		return domain.ExtractionRecord{}, domain.WrapError(domain.ErrSourceExtraction, "extract text",
			fmt.Errorf("document yields %d characters, need at least %d", length, minLength))
	}

	params.Text = text
	return uc.orchestrator.Extract(ctx, params, opts)
}
