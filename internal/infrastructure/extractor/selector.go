// Package extractor picks a text extractor for an uploaded document.
package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/kirillkom/keyword-intelligence/internal/core/ports"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/extractor/pdf"
)

// Selector routes PDFs (by content type, extension or magic bytes) to the
// PDF extractor and everything else to the plain-text extractor.
type Selector struct {
	pdf  ports.TextExtractor
	text ports.TextExtractor
}

func NewSelector(pdfExtractor, textExtractor ports.TextExtractor) *Selector {
	return &Selector{pdf: pdfExtractor, text: textExtractor}
}

func (s *Selector) Extract(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if isPDF(filename, contentType, data) {
		return s.pdf.Extract(ctx, filename, contentType, data)
	}
	return s.text.Extract(ctx, filename, contentType, data)
}

func isPDF(filename, contentType string, data []byte) bool {
	if pdf.IsPDF(data) {
		return true
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}
