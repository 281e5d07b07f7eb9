package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

// Validator turns a raw request into an ExtractionRequest. Out-of-range
// values are rejected, never clamped.
type Validator struct {
	limits domain.TextLimits
}

func NewValidator(limits domain.TextLimits) *Validator {
	def := domain.DefaultTextLimits()
	if limits.MinLength <= 0 {
		limits.MinLength = def.MinLength
	}
	if limits.MaxLength <= 0 {
		limits.MaxLength = def.MaxLength
	}
	if limits.MaxLength < limits.MinLength {
		limits.MaxLength = limits.MinLength
	}
	return &Validator{limits: limits}
}

func (v *Validator) Limits() domain.TextLimits {
	return v.limits
}

// Validate checks, in order: blank text, text length, ngram ordering,
// ngram bounds, keyword count.
func (v *Validator) Validate(raw domain.RawRequest) (domain.ExtractionRequest, error) {
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		return domain.ExtractionRequest{}, domain.NewValidationError("text", "must not be blank")
	}

	length := utf8.RuneCountInString(text)
	if length < v.limits.MinLength {
		return domain.ExtractionRequest{}, domain.NewValidationError("text",
			fmt.Sprintf("length %d is below minimum %d", length, v.limits.MinLength))
	}
	if length > v.limits.MaxLength {
		return domain.ExtractionRequest{}, domain.NewValidationError("text",
			fmt.Sprintf("length %d exceeds maximum %d", length, v.limits.MaxLength))
	}

	ngramMin := intOr(raw.NgramMin, domain.DefaultNgramLo)
	ngramMax := intOr(raw.NgramMax, domain.DefaultNgramHi)
	if ngramMax < ngramMin {
		return domain.ExtractionRequest{}, domain.NewValidationError("ngramMax",
			fmt.Sprintf("must be >= ngramMin (%d > %d)", ngramMin, ngramMax))
	}
	if ngramMin < domain.MinNgram || ngramMin > domain.MaxNgram {
		return domain.ExtractionRequest{}, domain.NewValidationError("ngramMin",
			fmt.Sprintf("must be between %d and %d", domain.MinNgram, domain.MaxNgram))
	}
	if ngramMax < domain.MinNgram || ngramMax > domain.MaxNgram {
		return domain.ExtractionRequest{}, domain.NewValidationError("ngramMax",
			fmt.Sprintf("must be between %d and %d", domain.MinNgram, domain.MaxNgram))
	}

	topN := intOr(raw.TopN, domain.DefaultTopN)
	if topN < domain.MinKeywords || topN > domain.MaxKeywords {
		return domain.ExtractionRequest{}, domain.NewValidationError("topN",
			fmt.Sprintf("must be between %d and %d", domain.MinKeywords, domain.MaxKeywords))
	}

	return domain.ExtractionRequest{
		Text:     text,
		TopN:     topN,
		NgramMin: ngramMin,
		NgramMax: ngramMax,
	}, nil
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
