// Package pdf extracts plain text from PDF uploads with ledongthuc/pdf.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// IsPDF checks the "%PDF-" magic bytes.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// Extract returns the text of every page joined with "\n". Pages without a
// text layer are skipped.
func (e *Extractor) Extract(ctx context.Context, filename, _ string, data []byte) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = domain.WrapError(domain.ErrSourceExtraction, "parse pdf "+filename, fmt.Errorf("malformed document: %v", rec))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.WrapError(domain.ErrSourceExtraction, "open pdf "+filename, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, content)
	}

	text = strings.TrimSpace(strings.Join(pages, "\n"))
	if text == "" {
		return "", domain.WrapError(domain.ErrSourceExtraction, "extract pdf text "+filename, errors.New("no text layer found"))
	}
	return text, nil
}
