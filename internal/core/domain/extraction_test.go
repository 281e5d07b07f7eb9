package domain

import "testing"

func TestEmptyResultDefaults(t *testing.T) {
	if got := EmptyResult(StageLexical); got.Keywords == nil || len(got.Keywords) != 0 || got.Succeeded {
		t.Fatalf("unexpected lexical default: %+v", got)
	}
	if got := EmptyResult(StagePhrases); got.Phrases == nil || len(got.Phrases) != 0 {
		t.Fatalf("unexpected phrases default: %+v", got)
	}
	if got := EmptyResult(StageSummary); got.Summary != "" {
		t.Fatalf("unexpected summary default: %+v", got)
	}
	if got := EmptyResult(StageTopic); got.Labels == nil || len(got.Labels) != 0 {
		t.Fatalf("unexpected topic default: %+v", got)
	}
}

func TestRecordProjections(t *testing.T) {
	var record ExtractionRecord
	record.SetResult(StageResult{Kind: StageLexical, Succeeded: true, Keywords: []ScoredPhrase{{Phrase: "chip", Score: 0.5}}})
	record.SetResult(StageResult{Kind: StageSemantic, Succeeded: true, Keywords: []ScoredPhrase{{Phrase: "ai chip", Score: 0.8}}})
	record.SetResult(StageResult{Kind: StageTopic, Succeeded: true, Labels: []string{"technology", "business"}})
	record.SetResult(EmptyResult(StageSummary))

	if got := record.RuleKeywords(); len(got) != 1 || got[0] != "chip" {
		t.Fatalf("unexpected rule keywords %v", got)
	}
	if got := record.MLKeywords(); len(got) != 1 || got[0] != "ai chip" {
		t.Fatalf("unexpected ml keywords %v", got)
	}
	if record.PredictedTopic() != "technology" {
		t.Fatalf("unexpected predicted topic %q", record.PredictedTopic())
	}
	failed := record.FailedStages()
	if len(failed) != 2 || failed[0] != StagePhrases || failed[1] != StageSummary {
		t.Fatalf("unexpected failed stages %v", failed)
	}
	if record.NounPhrases() == nil {
		t.Fatalf("expected non-nil phrases slice")
	}
}
