// Package export renders saved extraction records as CSV or XLSX and
// highlights keywords inside source text.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetName = "Dataset"
)

var headers = []string{"id", "created_at", "text", "summary", "topic", "keywords", "ml_keywords", "phrases"}

// Row is the flat shape of one saved record.
type Row struct {
	ID         string
	CreatedAt  time.Time
	Text       string
	Summary    string
	Topic      string
	Keywords   []string
	MLKeywords []string
	Phrases    []string
}

func RowFromRecord(record domain.ExtractionRecord) Row {
	return Row{
		ID:         record.ID,
		CreatedAt:  record.CreatedAt,
		Text:       record.Text,
		Summary:    record.Summary.Summary,
		Topic:      record.PredictedTopic(),
		Keywords:   record.RuleKeywords(),
		MLKeywords: record.MLKeywords(),
		Phrases:    record.NounPhrases(),
	}
}

func (r Row) values() []string {
	created := ""
	if !r.CreatedAt.IsZero() {
		created = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		r.ID,
		created,
		r.Text,
		r.Summary,
		r.Topic,
		strings.Join(r.Keywords, ", "),
		strings.Join(r.MLKeywords, ", "),
		strings.Join(r.Phrases, ", "),
	}
}

// ContentType maps an export format to its MIME type.
func ContentType(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV, "":
		return ContentTypeCSV, nil
	case FormatXLSX:
		return ContentTypeXLSX, nil
	default:
		return "", domain.NewValidationError("format", fmt.Sprintf("unsupported export format %q", format))
	}
}

// Render writes records in the requested format ("csv" when empty).
func Render(format string, records []domain.ExtractionRecord) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV, "":
		return DatasetCSV(records)
	case FormatXLSX:
		return DatasetXLSX(records, nil)
	default:
		return nil, domain.NewValidationError("format", fmt.Sprintf("unsupported export format %q", format))
	}
}

func DatasetCSV(records []domain.ExtractionRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, fmt.Errorf("csv write header: %w", err)
	}
	for _, record := range records {
		if err := w.Write(RowFromRecord(record).values()); err != nil {
			return nil, fmt.Errorf("csv write row %s: %w", record.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}
	return buf.Bytes(), nil
}

func DatasetXLSX(records []domain.ExtractionRecord, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("xlsx rename sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	for rowIdx, record := range records {
		for col, value := range RowFromRecord(record).values() {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "B", 22)
	_ = f.SetColWidth(sheetName, "C", "D", 60)
	_ = f.SetColWidth(sheetName, "E", "E", 14)
	_ = f.SetColWidth(sheetName, "F", "H", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	logger.Info("dataset_export_xlsx",
		"rows", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
