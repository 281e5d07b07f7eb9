package domain

import "time"

const (
	MinNgram       = 1
	MaxNgram       = 5
	MinKeywords    = 1
	MaxKeywords    = 50
	DefaultTopN    = 10
	DefaultNgramLo = 1
	DefaultNgramHi = 3

	DefaultMinTextLength = 10
	DefaultMaxTextLength = 100000

	MaxPhrases = 20

	ShortTextThreshold = 100
	SummaryInputLimit  = 1024
	SummaryMinLength   = 40
	SummaryMaxLength   = 120
	TopicInputLimit    = 512
)

// DefaultTopicLabels is the candidate set used by the topic classifier.
var DefaultTopicLabels = []string{
	"crime", "business", "politics", "technology",
	"health", "fraud", "terrorism", "finance",
}

type StageKind string

const (
	StageLexical  StageKind = "lexical"
	StageSemantic StageKind = "semantic"
	StagePhrases  StageKind = "phrases"
	StageSummary  StageKind = "summary"
	StageTopic    StageKind = "topic"
)

// StageKinds lists every stage in response order.
var StageKinds = []StageKind{StageLexical, StageSemantic, StagePhrases, StageSummary, StageTopic}

// RawRequest is an unvalidated extraction call. Nil numeric fields take defaults.
type RawRequest struct {
	Text     string `json:"text"`
	TopN     *int   `json:"topN,omitempty"`
	NgramMin *int   `json:"ngramMin,omitempty"`
	NgramMax *int   `json:"ngramMax,omitempty"`
}

// ExtractionRequest is a validated request. Text is already trimmed.
type ExtractionRequest struct {
	Text     string `json:"text"`
	TopN     int    `json:"topN"`
	NgramMin int    `json:"ngramMin"`
	NgramMax int    `json:"ngramMax"`
}

type TextLimits struct {
	MinLength int
	MaxLength int
}

func DefaultTextLimits() TextLimits {
	return TextLimits{MinLength: DefaultMinTextLength, MaxLength: DefaultMaxTextLength}
}

type ScoredPhrase struct {
	Phrase string  `json:"phrase"`
	Score  float64 `json:"score"`
}

// StageResult carries the output of one stage. Only the field matching Kind is populated.
type StageResult struct {
	Kind      StageKind      `json:"kind"`
	Succeeded bool           `json:"succeeded"`
	Keywords  []ScoredPhrase `json:"keywords,omitempty"`
	Phrases   []string       `json:"phrases,omitempty"`
	Summary   string         `json:"summary,omitempty"`
	Labels    []string       `json:"labels,omitempty"`
	Err       string         `json:"error,omitempty"`
}

// EmptyResult returns the documented default value for a stage kind.
func EmptyResult(kind StageKind) StageResult {
	result := StageResult{Kind: kind}
	switch kind {
	case StageLexical, StageSemantic:
		result.Keywords = []ScoredPhrase{}
	case StagePhrases:
		result.Phrases = []string{}
	case StageTopic:
		result.Labels = []string{}
	}
	return result
}

type ExtractionRecord struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	Lexical   StageResult `json:"lexical"`
	Semantic  StageResult `json:"semantic"`
	Phrases   StageResult `json:"phrases"`
	Summary   StageResult `json:"summary"`
	Topic     StageResult `json:"topic"`
	CreatedAt time.Time   `json:"created_at"`
}

func (r ExtractionRecord) Result(kind StageKind) StageResult {
	switch kind {
	case StageLexical:
		return r.Lexical
	case StageSemantic:
		return r.Semantic
	case StagePhrases:
		return r.Phrases
	case StageSummary:
		return r.Summary
	case StageTopic:
		return r.Topic
	default:
		return StageResult{Kind: kind}
	}
}

func (r *ExtractionRecord) SetResult(result StageResult) {
	switch result.Kind {
	case StageLexical:
		r.Lexical = result
	case StageSemantic:
		r.Semantic = result
	case StagePhrases:
		r.Phrases = result
	case StageSummary:
		r.Summary = result
	case StageTopic:
		r.Topic = result
	}
}

func (r ExtractionRecord) RuleKeywords() []string {
	return phrasesOf(r.Lexical.Keywords)
}

func (r ExtractionRecord) MLKeywords() []string {
	return phrasesOf(r.Semantic.Keywords)
}

func (r ExtractionRecord) NounPhrases() []string {
	if r.Phrases.Phrases == nil {
		return []string{}
	}
	return r.Phrases.Phrases
}

func (r ExtractionRecord) TopicLabels() []string {
	if r.Topic.Labels == nil {
		return []string{}
	}
	return r.Topic.Labels
}

// PredictedTopic is the best-ranked label, or "" when classification failed.
func (r ExtractionRecord) PredictedTopic() string {
	if len(r.Topic.Labels) == 0 {
		return ""
	}
	return r.Topic.Labels[0]
}

// FailedStages lists stages that fell back to their default value.
func (r ExtractionRecord) FailedStages() []StageKind {
	out := make([]StageKind, 0)
	for _, kind := range StageKinds {
		if !r.Result(kind).Succeeded {
			out = append(out, kind)
		}
	}
	return out
}

func phrasesOf(scored []ScoredPhrase) []string {
	out := make([]string, 0, len(scored))
	for _, item := range scored {
		out = append(out, item.Phrase)
	}
	return out
}

type StageReadiness struct {
	Stage     StageKind `json:"stage"`
	Model     string    `json:"model"`
	Ready     bool      `json:"ready"`
	Mandatory bool      `json:"mandatory"`
	Error     string    `json:"error,omitempty"`
}

// RunOptions carries caller choices that do not affect stage output.
type RunOptions struct {
	SaveToDataset bool
}
