package usecase

import (
	"context"
	"unicode/utf8"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
	"github.com/kirillkom/keyword-intelligence/internal/core/ports"
)

// Each stage wraps exactly one model call. A stage whose model is not ready
// returns ErrModelUnavailable without calling it.

type LexicalStage struct {
	registry *ModelRegistry
	scorer   ports.LexicalScorer
}

func NewLexicalStage(registry *ModelRegistry, scorer ports.LexicalScorer) *LexicalStage {
	return &LexicalStage{registry: registry, scorer: scorer}
}

func (s *LexicalStage) Kind() domain.StageKind { return domain.StageLexical }

func (s *LexicalStage) Run(_ context.Context, req domain.ExtractionRequest) (domain.StageResult, error) {
	if err := requireModel(s.registry, domain.StageLexical); err != nil {
		return domain.EmptyResult(domain.StageLexical), err
	}
	result := domain.EmptyResult(domain.StageLexical)
	if keywords := s.scorer.Score(req.Text, req.NgramMin, req.NgramMax, req.TopN); keywords != nil {
		result.Keywords = keywords
	}
	return result, nil
}

type SemanticStage struct {
	registry  *ModelRegistry
	extractor ports.KeyphraseExtractor
}

func NewSemanticStage(registry *ModelRegistry, extractor ports.KeyphraseExtractor) *SemanticStage {
	return &SemanticStage{registry: registry, extractor: extractor}
}

func (s *SemanticStage) Kind() domain.StageKind { return domain.StageSemantic }

func (s *SemanticStage) Run(ctx context.Context, req domain.ExtractionRequest) (domain.StageResult, error) {
	if err := requireModel(s.registry, domain.StageSemantic); err != nil {
		return domain.EmptyResult(domain.StageSemantic), err
	}
	keywords, err := s.extractor.ExtractKeyphrases(ctx, req.Text, req.NgramMin, req.NgramMax, req.TopN)
	if err != nil {
		return domain.EmptyResult(domain.StageSemantic), err
	}
	result := domain.EmptyResult(domain.StageSemantic)
	if len(keywords) > req.TopN {
		keywords = keywords[:req.TopN]
	}
	if keywords != nil {
		result.Keywords = keywords
	}
	return result, nil
}

type PhrasesStage struct {
	registry *ModelRegistry
	parser   ports.NounPhraseParser
}

func NewPhrasesStage(registry *ModelRegistry, parser ports.NounPhraseParser) *PhrasesStage {
	return &PhrasesStage{registry: registry, parser: parser}
}

func (s *PhrasesStage) Kind() domain.StageKind { return domain.StagePhrases }

func (s *PhrasesStage) Run(_ context.Context, req domain.ExtractionRequest) (domain.StageResult, error) {
	if err := requireModel(s.registry, domain.StagePhrases); err != nil {
		return domain.EmptyResult(domain.StagePhrases), err
	}
	phrases, err := s.parser.NounPhrases(req.Text)
	if err != nil {
		return domain.EmptyResult(domain.StagePhrases), err
	}
	result := domain.EmptyResult(domain.StagePhrases)
	if len(phrases) > domain.MaxPhrases {
		phrases = phrases[:domain.MaxPhrases]
	}
	if phrases != nil {
		result.Phrases = phrases
	}
	return result, nil
}

type SummaryStage struct {
	registry   *ModelRegistry
	summarizer ports.TextSummarizer
}

func NewSummaryStage(registry *ModelRegistry, summarizer ports.TextSummarizer) *SummaryStage {
	return &SummaryStage{registry: registry, summarizer: summarizer}
}

func (s *SummaryStage) Kind() domain.StageKind { return domain.StageSummary }

// Run returns short texts unchanged without touching the model.
func (s *SummaryStage) Run(ctx context.Context, req domain.ExtractionRequest) (domain.StageResult, error) {
	result := domain.EmptyResult(domain.StageSummary)
	if utf8.RuneCountInString(req.Text) <= domain.ShortTextThreshold {
		result.Summary = req.Text
		return result, nil
	}
	if err := requireModel(s.registry, domain.StageSummary); err != nil {
		return result, err
	}
	summary, err := s.summarizer.Summarize(ctx, truncateRunes(req.Text, domain.SummaryInputLimit), domain.SummaryMinLength, domain.SummaryMaxLength)
	if err != nil {
		return result, err
	}
	result.Summary = summary
	return result, nil
}

type TopicStage struct {
	registry   *ModelRegistry
	classifier ports.ZeroShotClassifier
	labels     []string
}

func NewTopicStage(registry *ModelRegistry, classifier ports.ZeroShotClassifier, labels []string) *TopicStage {
	if len(labels) == 0 {
		labels = domain.DefaultTopicLabels
	}
	return &TopicStage{registry: registry, classifier: classifier, labels: append([]string(nil), labels...)}
}

func (s *TopicStage) Kind() domain.StageKind { return domain.StageTopic }

func (s *TopicStage) Labels() []string {
	return append([]string(nil), s.labels...)
}

func (s *TopicStage) Run(ctx context.Context, req domain.ExtractionRequest) (domain.StageResult, error) {
	if err := requireModel(s.registry, domain.StageTopic); err != nil {
		return domain.EmptyResult(domain.StageTopic), err
	}
	labels, err := s.classifier.Classify(ctx, truncateRunes(req.Text, domain.TopicInputLimit), s.labels)
	if err != nil {
		return domain.EmptyResult(domain.StageTopic), err
	}
	result := domain.EmptyResult(domain.StageTopic)
	if labels != nil {
		result.Labels = labels
	}
	return result, nil
}

func requireModel(registry *ModelRegistry, kind domain.StageKind) error {
	if registry == nil {
		return nil
	}
	_, err := registry.Get(kind)
	return err
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
