package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/keyword-intelligence/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

// New builds a client; a nil executor calls Ollama directly.
func New(baseURL string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

// Embedder calls /api/embed with a fixed model.
type Embedder struct {
	client *Client
	model  string
}

func NewEmbedder(client *Client, model string) *Embedder {
	return &Embedder{client: client, model: model}
}

func (e *Embedder) Model() string {
	return e.model
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.model,
		"input": texts,
	}

	type embedResponse struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	operation := "embed:" + e.model
	response, err := resilience.Call(ctx, e.client.executor, operation, func(callCtx context.Context) (embedResponse, error) {
		var out embedResponse
		err := e.client.postJSON(callCtx, "/api/embed", request, &out, "embed")
		return out, err
	}, classifyOllamaError)
	if err != nil {
		return nil, wrapModelError(operation, err)
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Summarizer produces abstractive summaries with a generation model.
type Summarizer struct {
	client *Client
	model  string
	logger *slog.Logger
}

func NewSummarizer(client *Client, model string) *Summarizer {
	return &Summarizer{client: client, model: model, logger: slog.Default()}
}

// WithLogger replaces the logger used for summary quality warnings.
func (s *Summarizer) WithLogger(logger *slog.Logger) *Summarizer {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Summarizer) Name() string {
	return s.model
}

// Load checks that the generation model is present on the server.
func (s *Summarizer) Load(ctx context.Context) error {
	return s.client.showModel(ctx, s.model)
}

func (s *Summarizer) Summarize(ctx context.Context, text string, minTokens, maxTokens int) (string, error) {
	reqBody := map[string]any{
		"model":  s.model,
		"prompt": buildSummaryPrompt(text, minTokens, maxTokens),
		"stream": false,
		"options": map[string]any{
			"temperature": 0,
			"num_predict": maxTokens * 2,
		},
	}
	out, err := s.client.generate(ctx, s.model, reqBody)
	if err != nil {
		return "", err
	}
	summary := clipTokens(cleanSummary(out), maxTokens)
	// Short replies are kept; the model was asked for at least minTokens words.
	if words := len(strings.Fields(summary)); minTokens > 0 && words < minTokens {
		s.logger.Warn("summary_below_min_tokens", "model", s.model, "words", words, "min_tokens", minTokens)
	}
	return summary, nil
}

func (c *Client) generate(ctx context.Context, model string, reqBody map[string]any) (string, error) {
	type generateResponse struct {
		Response string `json:"response"`
	}
	operation := "generate:" + model
	response, err := resilience.Call(ctx, c.executor, operation, func(callCtx context.Context) (generateResponse, error) {
		var out generateResponse
		err := c.postJSON(callCtx, "/api/generate", reqBody, &out, "generate")
		return out, err
	}, classifyOllamaError)
	if err != nil {
		return "", wrapModelError(operation, err)
	}
	return strings.TrimSpace(response.Response), nil
}

func (c *Client) showModel(ctx context.Context, model string) error {
	var response struct {
		Details map[string]any `json:"details"`
	}
	if err := c.postJSON(ctx, "/api/show", map[string]any{"model": model}, &response, "show"); err != nil {
		return wrapModelError("show:"+model, err)
	}
	return nil
}
