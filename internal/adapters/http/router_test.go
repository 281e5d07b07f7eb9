package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/keyword-intelligence/internal/config"
	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

type extractorFake struct {
	got  domain.RawRequest
	opts domain.RunOptions
	err  error
}

func sampleRecord(text string) domain.ExtractionRecord {
	record := domain.ExtractionRecord{ID: "rec-1", Text: text}
	record.SetResult(domain.StageResult{Kind: domain.StageLexical, Succeeded: true, Keywords: []domain.ScoredPhrase{{Phrase: "chip", Score: 0.6}}})
	record.SetResult(domain.EmptyResult(domain.StageSemantic))
	record.SetResult(domain.StageResult{Kind: domain.StagePhrases, Succeeded: true, Phrases: []string{"a new AI chip"}})
	record.SetResult(domain.StageResult{Kind: domain.StageSummary, Succeeded: true, Summary: text})
	record.SetResult(domain.StageResult{Kind: domain.StageTopic, Succeeded: true, Labels: []string{"technology", "business"}})
	return record
}

func (f *extractorFake) Extract(_ context.Context, raw domain.RawRequest, opts domain.RunOptions) (domain.ExtractionRecord, error) {
	f.got = raw
	f.opts = opts
	if f.err != nil {
		return domain.ExtractionRecord{}, f.err
	}
	return sampleRecord(raw.Text), nil
}

type documentFake struct {
	filename string
	body     string
	params   domain.RawRequest
	opts     domain.RunOptions
	err      error
}

func (f *documentFake) ExtractDocument(_ context.Context, filename, _ string, body io.Reader, params domain.RawRequest, opts domain.RunOptions) (domain.ExtractionRecord, error) {
	raw, _ := io.ReadAll(body)
	f.filename = filename
	f.body = string(raw)
	f.params = params
	f.opts = opts
	if f.err != nil {
		return domain.ExtractionRecord{}, f.err
	}
	return sampleRecord(string(raw)), nil
}

type readinessFake []domain.StageReadiness

func (f readinessFake) Readiness() []domain.StageReadiness { return f }

type datasetFake struct {
	records   []domain.ExtractionRecord
	listCalls int
}

func (f *datasetFake) List(context.Context) ([]domain.ExtractionRecord, error) {
	f.listCalls++
	return f.records, nil
}

func (f *datasetFake) Len() int { return len(f.records) }

type observerFake struct {
	results     []string
	datasetSize int
}

func (f *observerFake) RecordExtraction(source, result string, _, _ int) {
	f.results = append(f.results, source+":"+result)
}

func (f *observerFake) SetDatasetSize(n int) { f.datasetSize = n }

type testDeps struct {
	extractor *extractorFake
	documents *documentFake
	dataset   *datasetFake
	readiness readinessFake
}

func newTestHandler(cfg config.Config, deps *testDeps) http.Handler {
	if deps.extractor == nil {
		deps.extractor = &extractorFake{}
	}
	if deps.documents == nil {
		deps.documents = &documentFake{}
	}
	if deps.dataset == nil {
		deps.dataset = &datasetFake{}
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "keyword-intelligence"
	}
	return NewRouter(cfg, deps.extractor, deps.documents, deps.readiness, deps.dataset).Handler()
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestRootReturnsServiceInfo(t *testing.T) {
	handler := newTestHandler(config.Config{Version: "1.2.3"}, &testDeps{})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]string
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Code != http.StatusOK || body["message"] != rootMessage || body["version"] != "1.2.3" {
		t.Fatalf("unexpected root response %d %+v", res.Code, body)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestExtractReturnsCompositeResponse(t *testing.T) {
	deps := &testDeps{}
	handler := newTestHandler(config.Config{}, deps)
	res := postJSON(t, handler, "/v1/extract", map[string]any{
		"text": "Apple unveiled a new AI chip.", "topN": 5, "save": true, "highlight": true,
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var body extractResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.PredictedTopic != "technology" || len(body.RuleKeywords) != 1 || body.MLKeywords == nil {
		t.Fatalf("unexpected response %+v", body)
	}
	if len(body.FailedStages) != 1 || body.FailedStages[0] != domain.StageSemantic {
		t.Fatalf("expected semantic as failed stage, got %v", body.FailedStages)
	}
	if body.Highlighted != "Apple unveiled a new AI **chip**." {
		t.Fatalf("unexpected highlight %q", body.Highlighted)
	}
	if deps.extractor.got.TopN == nil || *deps.extractor.got.TopN != 5 || deps.extractor.got.NgramMin != nil {
		t.Fatalf("unexpected forwarded request %+v", deps.extractor.got)
	}
	if !deps.extractor.opts.SaveToDataset {
		t.Fatalf("expected save option forwarded")
	}
}

func TestExtractReportsDatasetSizeWithoutListing(t *testing.T) {
	deps := &testDeps{dataset: &datasetFake{records: []domain.ExtractionRecord{sampleRecord("a"), sampleRecord("b")}}}
	observer := &observerFake{}
	handler := NewRouter(config.Config{ServiceName: "keyword-intelligence"}, &extractorFake{}, &documentFake{}, readinessFake{}, deps.dataset).
		WithMetrics(http.NotFoundHandler(), observer).Handler()

	res := postJSON(t, handler, "/v1/extract", map[string]any{"text": "Apple unveiled a new AI chip."})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if observer.datasetSize != 2 || deps.dataset.listCalls != 0 {
		t.Fatalf("expected size 2 without List, got size %d after %d List calls", observer.datasetSize, deps.dataset.listCalls)
	}
	if len(observer.results) != 1 || observer.results[0] != "text:ok" {
		t.Fatalf("unexpected recorded outcomes %v", observer.results)
	}
}

func TestExtractLegacyAlias(t *testing.T) {
	res := postJSON(t, newTestHandler(config.Config{}, &testDeps{}), "/extract", map[string]any{"text": "some long enough text"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 on alias, got %d", res.Code)
	}
}

func TestExtractMapsValidationErrorTo400(t *testing.T) {
	deps := &testDeps{extractor: &extractorFake{err: domain.NewValidationError("ngramMax", "must be >= ngramMin (3 > 2)")}}
	res := postJSON(t, newTestHandler(config.Config{}, deps), "/v1/extract", map[string]any{"text": "x", "ngramMin": 3, "ngramMax": 2})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	var body errorResponse
	_ = json.NewDecoder(res.Body).Decode(&body)
	if body.Field != "ngramMax" {
		t.Fatalf("expected field in error body, got %+v", body)
	}
}

func TestExtractRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", strings.NewReader("{"))
	res := httptest.NewRecorder()
	newTestHandler(config.Config{}, &testDeps{}).ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestExtractWrongMethod(t *testing.T) {
	res := httptest.NewRecorder()
	newTestHandler(config.Config{}, &testDeps{}).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/extract", nil))
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func multipartRequest(t *testing.T, path, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestExtractDocumentForwardsUploadAndParams(t *testing.T) {
	deps := &testDeps{}
	handler := newTestHandler(config.Config{}, deps)
	req := multipartRequest(t, "/v1/extract/document", "notes.txt", "Apple unveiled a chip.", map[string]string{"topN": "7", "save": "true"})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if deps.documents.filename != "notes.txt" || deps.documents.body != "Apple unveiled a chip." {
		t.Fatalf("unexpected upload %+v", deps.documents)
	}
	if deps.documents.params.TopN == nil || *deps.documents.params.TopN != 7 || !deps.documents.opts.SaveToDataset {
		t.Fatalf("unexpected params %+v %+v", deps.documents.params, deps.documents.opts)
	}
}

func TestExtractDocumentErrors(t *testing.T) {
	cases := []struct {
		name   string
		deps   *testDeps
		req    func(t *testing.T) *http.Request
		status int
	}{
		{
			name: "missing file",
			deps: &testDeps{},
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/v1/extract/document", "", "", map[string]string{"topN": "3"})
			},
			status: http.StatusBadRequest,
		},
		{
			name: "bad integer field",
			deps: &testDeps{},
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/extract_pdf", "a.pdf", "%PDF-", map[string]string{"ngramMin": "two"})
			},
			status: http.StatusBadRequest,
		},
		{
			name: "unreadable document",
			deps: &testDeps{documents: &documentFake{err: domain.WrapError(domain.ErrSourceExtraction, "open pdf", errors.New("bad xref"))}},
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/extract_pdf", "a.pdf", "%PDF-", nil)
			},
			status: http.StatusUnprocessableEntity,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := httptest.NewRecorder()
			newTestHandler(config.Config{}, tc.deps).ServeHTTP(res, tc.req(t))
			if res.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, res.Code, res.Body.String())
			}
		})
	}
}

func TestExtractDocumentTooLarge(t *testing.T) {
	handler := newTestHandler(config.Config{MaxUploadBytes: 64}, &testDeps{})
	req := multipartRequest(t, "/v1/extract/document", "big.txt", strings.Repeat("a", 1024), nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
}

func TestReadyzReportsDegradedForOptionalStages(t *testing.T) {
	deps := &testDeps{readiness: readinessFake{
		{Stage: domain.StageLexical, Ready: true, Mandatory: true},
		{Stage: domain.StageSummary, Ready: false, Mandatory: false, Error: "connection refused"},
	}}
	res := httptest.NewRecorder()
	newTestHandler(config.Config{}, deps).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var body readinessResponse
	_ = json.NewDecoder(res.Body).Decode(&body)
	if res.Code != http.StatusOK || body.Status != "degraded" || len(body.Stages) != 2 {
		t.Fatalf("unexpected readiness %d %+v", res.Code, body)
	}
}

func TestReadyzUnavailableForMandatoryStage(t *testing.T) {
	deps := &testDeps{readiness: readinessFake{{Stage: domain.StagePhrases, Ready: false, Mandatory: true}}}
	res := httptest.NewRecorder()
	newTestHandler(config.Config{}, deps).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestDatasetListAndExport(t *testing.T) {
	deps := &testDeps{dataset: &datasetFake{records: []domain.ExtractionRecord{sampleRecord("Apple unveiled a new AI chip.")}}}
	handler := newTestHandler(config.Config{}, deps)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/dataset", nil))
	var list datasetResponse
	if err := json.NewDecoder(res.Body).Decode(&list); err != nil {
		t.Fatalf("decode dataset: %v", err)
	}
	if list.Count != 1 || list.Records[0].Topic != "technology" {
		t.Fatalf("unexpected dataset %+v", list)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/dataset/export?format=csv", nil))
	if res.Code != http.StatusOK || !strings.HasPrefix(res.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected csv export %d %s", res.Code, res.Header().Get("Content-Type"))
	}
	if !strings.Contains(res.Body.String(), "Apple unveiled a new AI chip.") {
		t.Fatalf("expected record text in csv, got %s", res.Body.String())
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/dataset/export?format=xlsx", nil))
	if res.Code != http.StatusOK || !bytes.HasPrefix(res.Body.Bytes(), []byte("PK")) {
		t.Fatalf("expected xlsx zip payload, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/dataset/export?format=pdf", nil))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", res.Code)
	}
}

func TestOpenAPIDocumentCoversRoutes(t *testing.T) {
	doc, err := loadOpenAPI(context.Background())
	if err != nil {
		t.Fatalf("loadOpenAPI() error = %v", err)
	}
	for _, path := range []string{"/", "/healthz", "/readyz", "/v1/extract", "/extract", "/v1/extract/document", "/extract_pdf", "/v1/dataset", "/v1/dataset/export", "/metrics"} {
		if doc.Paths.Value(path) == nil {
			t.Fatalf("path %s missing from openapi document", path)
		}
	}

	res := httptest.NewRecorder()
	newTestHandler(config.Config{}, &testDeps{}).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), `"openapi":"3.0.3"`) {
		t.Fatalf("unexpected openapi response %d %s", res.Code, res.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.NewValidationError("text", "blank"), http.StatusBadRequest},
		{domain.WrapError(domain.ErrSourceExtraction, "pdf", errors.New("x")), http.StatusUnprocessableEntity},
		{domain.WrapError(domain.ErrTemporary, "nats", errors.New("x")), http.StatusServiceUnavailable},
		{domain.WrapError(domain.ErrModelUnavailable, "summary", errors.New("x")), http.StatusServiceUnavailable},
		{domain.WrapError(domain.ErrNotFound, "record", errors.New("x")), http.StatusNotFound},
		{&http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := mapErrorToHTTPStatus(tc.err); got != tc.want {
			t.Fatalf("mapErrorToHTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
