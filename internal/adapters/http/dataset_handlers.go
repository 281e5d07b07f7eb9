package httpadapter

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/export"
)

type datasetRow struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Text       string    `json:"text"`
	Summary    string    `json:"summary"`
	Topic      string    `json:"topic"`
	Keywords   []string  `json:"keywords"`
	MLKeywords []string  `json:"mlKeywords"`
}

type datasetResponse struct {
	Count   int          `json:"count"`
	Records []datasetRow `json:"records"`
}

func (rt *Router) listDataset(w http.ResponseWriter, r *http.Request) {
	records, err := rt.dataset.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	resp := datasetResponse{Count: len(records), Records: make([]datasetRow, 0, len(records))}
	for _, record := range records {
		row := export.RowFromRecord(record)
		resp.Records = append(resp.Records, datasetRow{
			ID:         row.ID,
			CreatedAt:  row.CreatedAt,
			Text:       row.Text,
			Summary:    row.Summary,
			Topic:      row.Topic,
			Keywords:   row.Keywords,
			MLKeywords: row.MLKeywords,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) exportDataset(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = export.FormatCSV
	}
	contentType, err := export.ContentType(format)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	records, err := rt.dataset.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	body, err := export.Render(format, records)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="keyword_dataset.%s"`, format))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
