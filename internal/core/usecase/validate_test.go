package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

func intPtr(v int) *int { return &v }

func TestValidateAppliesDefaultsAndTrims(t *testing.T) {
	v := NewValidator(domain.DefaultTextLimits())
	req, err := v.Validate(domain.RawRequest{Text: "  Apple unveiled a new chip.  "})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if req.Text != "Apple unveiled a new chip." {
		t.Fatalf("expected trimmed text, got %q", req.Text)
	}
	if req.TopN != 10 || req.NgramMin != 1 || req.NgramMax != 3 {
		t.Fatalf("unexpected defaults %+v", req)
	}
}

func TestValidateRejections(t *testing.T) {
	v := NewValidator(domain.TextLimits{MinLength: 10, MaxLength: 50})
	valid := "a perfectly valid text"

	cases := []struct {
		name  string
		raw   domain.RawRequest
		field string
	}{
		{name: "blank", raw: domain.RawRequest{Text: " \n\t "}, field: "text"},
		{name: "too short", raw: domain.RawRequest{Text: "short"}, field: "text"},
		{name: "too long", raw: domain.RawRequest{Text: strings.Repeat("x", 51)}, field: "text"},
		{name: "ngram order", raw: domain.RawRequest{Text: valid, NgramMin: intPtr(3), NgramMax: intPtr(2)}, field: "ngramMax"},
		{name: "ngram min zero", raw: domain.RawRequest{Text: valid, NgramMin: intPtr(0), NgramMax: intPtr(2)}, field: "ngramMin"},
		{name: "ngram max above bound", raw: domain.RawRequest{Text: valid, NgramMin: intPtr(1), NgramMax: intPtr(6)}, field: "ngramMax"},
		{name: "topN zero", raw: domain.RawRequest{Text: valid, TopN: intPtr(0)}, field: "topN"},
		{name: "topN above bound", raw: domain.RawRequest{Text: valid, TopN: intPtr(51)}, field: "topN"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Validate(tc.raw)
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Fatalf("expected field %q, got %q (%v)", tc.field, vErr.Field, err)
			}
			if !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input kind")
			}
		})
	}
}

func TestValidateBlankBeatsOtherViolations(t *testing.T) {
	_, err := NewValidator(domain.DefaultTextLimits()).Validate(domain.RawRequest{Text: "", TopN: intPtr(0), NgramMin: intPtr(4), NgramMax: intPtr(2)})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "text" {
		t.Fatalf("expected text violation first, got %v", err)
	}
}

func TestValidateOrderingBeatsBounds(t *testing.T) {
	_, err := NewValidator(domain.DefaultTextLimits()).Validate(domain.RawRequest{Text: "long enough text", NgramMin: intPtr(9), NgramMax: intPtr(7)})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "ngramMax" || !strings.Contains(vErr.Constraint, ">=") {
		t.Fatalf("expected ordering violation, got %v", err)
	}
}

func TestValidateMinTextLengthBoundary(t *testing.T) {
	v := NewValidator(domain.TextLimits{MinLength: 10, MaxLength: 100})
	if _, err := v.Validate(domain.RawRequest{Text: strings.Repeat("é", 9)}); err == nil {
		t.Fatalf("expected rejection at min-1 code points")
	}
	if _, err := v.Validate(domain.RawRequest{Text: strings.Repeat("é", 10)}); err != nil {
		t.Fatalf("expected acceptance at min code points, got %v", err)
	}
}
