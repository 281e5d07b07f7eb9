package ollama

import (
	"fmt"
	"strings"
)

func buildSummaryPrompt(text string, minTokens, maxTokens int) string {
	return fmt.Sprintf(`Summarize the text below in a single paragraph of %d to %d words.
Write only the summary. No title, no bullet points, no preamble.

Text:
%s
`, minTokens, maxTokens, text)
}

// cleanSummary drops a leading "Summary:" label some models add.
func cleanSummary(raw string) string {
	out := strings.TrimSpace(raw)
	lower := strings.ToLower(out)
	for _, prefix := range []string{"summary:", "here is the summary:", "here is a summary:"} {
		if strings.HasPrefix(lower, prefix) {
			out = strings.TrimSpace(out[len(prefix):])
			break
		}
	}
	return out
}

func clipTokens(text string, maxTokens int) string {
	fields := strings.Fields(text)
	if maxTokens <= 0 || len(fields) <= maxTokens {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:maxTokens], " ")
}
