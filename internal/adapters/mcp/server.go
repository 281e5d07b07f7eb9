// Package mcpadapter exposes keyword extraction as a Model Context Protocol tool.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
	"github.com/kirillkom/keyword-intelligence/internal/core/ports"
)

const ToolExtractKeywords = "extract_keywords"

type Server struct {
	extractor ports.KeywordExtractor
	mcp       *server.MCPServer
}

func NewServer(name, version string, extractor ports.KeywordExtractor) *Server {
	s := &Server{
		extractor: extractor,
		mcp:       server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
	}
	s.mcp.AddTool(extractKeywordsTool(), s.handleExtractKeywords)
	return s
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio blocks until stdin closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func extractKeywordsTool() mcp.Tool {
	return mcp.NewTool(ToolExtractKeywords,
		mcp.WithDescription("Extract rule-based and semantic keywords, noun phrases, a summary and a predicted topic from text."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to analyse.")),
		mcp.WithNumber("topN", mcp.Description("Keywords per keyword stage, 1..50. Defaults to 10.")),
		mcp.WithNumber("ngramMin", mcp.Description("Smallest n-gram size, 1..5. Defaults to 1.")),
		mcp.WithNumber("ngramMax", mcp.Description("Largest n-gram size, 1..5. Defaults to 3.")),
		mcp.WithBoolean("save", mcp.Description("Append the result to the session dataset.")),
	)
}

type toolResult struct {
	ID             string             `json:"id"`
	RuleKeywords   []string           `json:"ruleKeywords"`
	MLKeywords     []string           `json:"mlKeywords"`
	Phrases        []string           `json:"phrases"`
	Summary        string             `json:"summary"`
	Topic          []string           `json:"topic"`
	PredictedTopic string             `json:"predictedTopic"`
	FailedStages   []domain.StageKind `json:"failedStages"`
}

func (s *Server) handleExtractKeywords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()
	raw := domain.RawRequest{Text: text}
	for _, field := range []struct {
		name string
		dst  **int
	}{
		{"topN", &raw.TopN},
		{"ngramMin", &raw.NgramMin},
		{"ngramMax", &raw.NgramMax},
	} {
		value, present, err := optionalInt(args, field.name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if present {
			*field.dst = &value
		}
	}

	record, err := s.extractor.Extract(ctx, raw, domain.RunOptions{SaveToDataset: request.GetBool("save", false)})
	if err != nil {
		if domain.IsKind(err, domain.ErrInvalidInput) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}

	payload, err := json.Marshal(toolResult{
		ID:             record.ID,
		RuleKeywords:   record.RuleKeywords(),
		MLKeywords:     record.MLKeywords(),
		Phrases:        record.NounPhrases(),
		Summary:        record.Summary.Summary,
		Topic:          record.TopicLabels(),
		PredictedTopic: record.PredictedTopic(),
		FailedStages:   record.FailedStages(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// optionalInt accepts JSON numbers that hold whole values.
func optionalInt(args map[string]any, name string) (int, bool, error) {
	value, ok := args[name]
	if !ok || value == nil {
		return 0, false, nil
	}
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false, domain.NewValidationError(name, fmt.Sprintf("must be an integer, got %v", v))
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	default:
		return 0, false, domain.NewValidationError(name, fmt.Sprintf("must be an integer, got %T", value))
	}
}
