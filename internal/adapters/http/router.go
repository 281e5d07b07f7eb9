package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/kirillkom/keyword-intelligence/internal/config"
	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
	"github.com/kirillkom/keyword-intelligence/internal/core/ports"
)

const rootMessage = "Keyword Intelligence API is running"

// ExtractionObserver receives request-level outcomes; metrics implement it.
type ExtractionObserver interface {
	RecordExtraction(source, result string, ruleKeywords, mlKeywords int)
	SetDatasetSize(n int)
}

type Router struct {
	cfg       config.Config
	extractor ports.KeywordExtractor
	documents ports.DocumentKeywordExtractor
	readiness ports.ReadinessReporter
	dataset   ports.DatasetReader

	metricsHandler http.Handler
	observer       ExtractionObserver
	openapi        *openapi3.T
}

func NewRouter(
	cfg config.Config,
	extractor ports.KeywordExtractor,
	documents ports.DocumentKeywordExtractor,
	readiness ports.ReadinessReporter,
	dataset ports.DatasetReader,
) *Router {
	doc, err := loadOpenAPI(context.Background())
	if err != nil {
		slog.Error("openapi_load_failed", "error", err)
	}
	return &Router{
		cfg:       cfg,
		extractor: extractor,
		documents: documents,
		readiness: readiness,
		dataset:   dataset,
		openapi:   doc,
	}
}

// WithMetrics exposes handler on /metrics and reports outcomes to observer.
func (rt *Router) WithMetrics(handler http.Handler, observer ExtractionObserver) *Router {
	rt.metricsHandler = handler
	rt.observer = observer
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", rt.root)
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /readyz", rt.readyz)
	mux.HandleFunc("GET /openapi.json", rt.openAPI)

	mux.HandleFunc("POST /v1/extract", rt.extractText)
	mux.HandleFunc("POST /extract", rt.extractText)
	mux.HandleFunc("POST /v1/extract/document", rt.extractDocument)
	mux.HandleFunc("POST /extract_pdf", rt.extractDocument)

	mux.HandleFunc("GET /v1/dataset", rt.listDataset)
	mux.HandleFunc("GET /v1/dataset/export", rt.exportDataset)

	if rt.metricsHandler != nil {
		mux.Handle("GET /metrics", rt.metricsHandler)
	}

	var handler http.Handler = mux
	handler = bodyLimitMiddleware(handler, rt.cfg.MaxUploadBytes)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = corsMiddleware(handler, rt.cfg.CORSAllowOrigins)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    rt.cfg.ServiceName,
		"version": rt.cfg.Version,
		"message": rootMessage,
	})
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readinessResponse struct {
	Status string                  `json:"status"`
	Stages []domain.StageReadiness `json:"stages"`
}

func (rt *Router) readyz(w http.ResponseWriter, _ *http.Request) {
	stages := []domain.StageReadiness{}
	if rt.readiness != nil {
		stages = rt.readiness.Readiness()
	}
	status := "ok"
	code := http.StatusOK
	for _, stage := range stages {
		if stage.Ready {
			continue
		}
		if stage.Mandatory {
			status = "unavailable"
			code = http.StatusServiceUnavailable
			break
		}
		status = "degraded"
	}
	writeJSON(w, code, readinessResponse{Status: status, Stages: stages})
}

func (rt *Router) openAPI(w http.ResponseWriter, _ *http.Request) {
	if rt.openapi == nil {
		writeError(w, http.StatusInternalServerError, "openapi document unavailable")
		return
	}
	raw, err := rt.openapi.MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody(err))
}
