package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

func sampleRecord() domain.ExtractionRecord {
	record := domain.ExtractionRecord{
		ID:        "rec-1",
		Text:      "Apple unveiled a new AI chip, \"fast\", for laptops.",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	record.SetResult(domain.StageResult{Kind: domain.StageLexical, Succeeded: true, Keywords: []domain.ScoredPhrase{{Phrase: "chip"}, {Phrase: "apple"}}})
	record.SetResult(domain.StageResult{Kind: domain.StageSemantic, Succeeded: true, Keywords: []domain.ScoredPhrase{{Phrase: "ai chip"}}})
	record.SetResult(domain.StageResult{Kind: domain.StageSummary, Succeeded: true, Summary: "Apple has a chip."})
	record.SetResult(domain.StageResult{Kind: domain.StageTopic, Succeeded: true, Labels: []string{"technology", "business"}})
	return record
}

func TestDatasetCSV(t *testing.T) {
	raw, err := DatasetCSV([]domain.ExtractionRecord{sampleRecord()})
	if err != nil {
		t.Fatalf("DatasetCSV() error = %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "id" {
		t.Fatalf("unexpected rows %v", rows)
	}
	row := rows[1]
	if row[2] != sampleRecord().Text || row[4] != "technology" || row[5] != "chip, apple" || row[6] != "ai chip" {
		t.Fatalf("unexpected row %v", row)
	}
	if row[1] != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected timestamp %q", row[1])
	}
}

func TestDatasetXLSX(t *testing.T) {
	raw, err := DatasetXLSX([]domain.ExtractionRecord{sampleRecord()}, nil)
	if err != nil {
		t.Fatalf("DatasetXLSX() error = %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	topic, err := f.GetCellValue(sheetName, "E2")
	if err != nil || topic != "technology" {
		t.Fatalf("unexpected topic cell %q, %v", topic, err)
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	if _, err := Render("pdf", nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if ct, err := ContentType("XLSX"); err != nil || ct != ContentTypeXLSX {
		t.Fatalf("unexpected content type %q, %v", ct, err)
	}
}

func TestHighlight(t *testing.T) {
	got := Highlight("Apple unveiled a new AI chip. The chip ships to apple stores.", []string{"chip", "AI chip", "apple", "chip"})
	want := "**Apple** unveiled a new **AI chip**. The **chip** ships to **apple** stores."
	if got != want {
		t.Fatalf("Highlight() = %q, want %q", got, want)
	}
	if Highlight("chipset", []string{"chip"}) != "chipset" {
		t.Fatalf("expected whole-word matching only")
	}
	if got := Highlight("plain", nil); got != "plain" {
		t.Fatalf("expected unchanged text, got %q", got)
	}
	if got := Highlight("Versions 1.5 and 105", []string{"1.5"}); got != "Versions **1.5** and 105" {
		t.Fatalf("expected metacharacters to be quoted, got %q", got)
	}
	if got := Highlight("Über alles and café culture, not cafés", []string{"über", "café"}); got != "**Über** alles and **café** culture, not cafés" {
		t.Fatalf("expected unicode word boundaries, got %q", got)
	}
	if got := Highlight("An AI chipset and an AI", []string{"AI chip", "ai"}); got != "An **AI** chipset and an **AI**" {
		t.Fatalf("expected shorter keyword after a longer partial match, got %q", got)
	}
}
