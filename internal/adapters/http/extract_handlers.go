package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/export"
)

const multipartMemory = 8 << 20

type extractRequest struct {
	Text      string `json:"text"`
	TopN      *int   `json:"topN"`
	NgramMin  *int   `json:"ngramMin"`
	NgramMax  *int   `json:"ngramMax"`
	Save      bool   `json:"save"`
	Highlight bool   `json:"highlight"`
}

type extractResponse struct {
	ID             string             `json:"id"`
	RuleKeywords   []string           `json:"ruleKeywords"`
	MLKeywords     []string           `json:"mlKeywords"`
	Phrases        []string           `json:"phrases"`
	Summary        string             `json:"summary"`
	Topic          []string           `json:"topic"`
	PredictedTopic string             `json:"predictedTopic"`
	FailedStages   []domain.StageKind `json:"failedStages"`
	Highlighted    string             `json:"highlighted,omitempty"`
}

func newExtractResponse(record domain.ExtractionRecord, highlight bool) extractResponse {
	resp := extractResponse{
		ID:             record.ID,
		RuleKeywords:   record.RuleKeywords(),
		MLKeywords:     record.MLKeywords(),
		Phrases:        record.NounPhrases(),
		Summary:        record.Summary.Summary,
		Topic:          record.TopicLabels(),
		PredictedTopic: record.PredictedTopic(),
		FailedStages:   record.FailedStages(),
	}
	if highlight {
		keywords := append(record.RuleKeywords(), record.MLKeywords()...)
		resp.Highlighted = export.Highlight(record.Text, keywords)
	}
	return resp
}

func (rt *Router) extractText(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDomainError(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	record, err := rt.extractor.Extract(r.Context(), domain.RawRequest{
		Text:     req.Text,
		TopN:     req.TopN,
		NgramMin: req.NgramMin,
		NgramMax: req.NgramMax,
	}, domain.RunOptions{SaveToDataset: req.Save})
	if err != nil {
		rt.recordExtraction("text", err, domain.ExtractionRecord{})
		writeDomainError(w, r, err)
		return
	}

	rt.recordExtraction("text", nil, record)
	w.Header().Set(extractionIDHeader, record.ID)
	writeJSON(w, http.StatusOK, newExtractResponse(record, req.Highlight))
}

func (rt *Router) extractDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDomainError(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, "multipart form is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	params, err := formParams(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	save, err := formBool(r, "save")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	highlight, err := formBool(r, "highlight")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	record, err := rt.documents.ExtractDocument(
		r.Context(),
		header.Filename,
		header.Header.Get("Content-Type"),
		file,
		params,
		domain.RunOptions{SaveToDataset: save},
	)
	if err != nil {
		rt.recordExtraction("document", err, domain.ExtractionRecord{})
		writeDomainError(w, r, err)
		return
	}

	rt.recordExtraction("document", nil, record)
	w.Header().Set(extractionIDHeader, record.ID)
	writeJSON(w, http.StatusOK, newExtractResponse(record, highlight))
}

func (rt *Router) recordExtraction(source string, err error, record domain.ExtractionRecord) {
	if rt.observer == nil {
		return
	}
	if err != nil {
		result := "error"
		switch {
		case domain.IsKind(err, domain.ErrInvalidInput):
			result = "invalid"
		case domain.IsKind(err, domain.ErrSourceExtraction):
			result = "source_error"
		}
		rt.observer.RecordExtraction(source, result, 0, 0)
		return
	}
	rt.observer.RecordExtraction(source, "ok", len(record.Lexical.Keywords), len(record.Semantic.Keywords))
	if rt.dataset != nil {
		rt.observer.SetDatasetSize(rt.dataset.Len())
	}
}

func formParams(r *http.Request) (domain.RawRequest, error) {
	var params domain.RawRequest
	for _, field := range []struct {
		name string
		dst  **int
	}{
		{"topN", &params.TopN},
		{"ngramMin", &params.NgramMin},
		{"ngramMax", &params.NgramMax},
	} {
		raw := strings.TrimSpace(r.FormValue(field.name))
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return domain.RawRequest{}, domain.NewValidationError(field.name, fmt.Sprintf("must be an integer, got %q", raw))
		}
		*field.dst = &value
	}
	return params, nil
}

func formBool(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.NewValidationError(name, fmt.Sprintf("must be a boolean, got %q", raw))
	}
	return value, nil
}
