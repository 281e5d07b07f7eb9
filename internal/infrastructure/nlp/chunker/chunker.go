package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

// Token is one tagged word with a Penn Treebank part-of-speech tag.
type Token struct {
	Text string
	Tag  string
}

// Chunker extracts noun phrases using the prose averaged-perceptron tagger.
type Chunker struct {
	limit int
}

func New(limit int) *Chunker {
	if limit <= 0 {
		limit = domain.MaxPhrases
	}
	return &Chunker{limit: limit}
}

func (c *Chunker) Name() string {
	return "prose-perceptron-tagger"
}

// Load decodes the embedded tagger model once so a broken build fails at startup.
func (c *Chunker) Load(context.Context) error {
	doc, err := prose.NewDocument("The tagger model loads once.",
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return fmt.Errorf("load tagger model: %w", err)
	}
	if len(doc.Tokens()) == 0 {
		return fmt.Errorf("load tagger model: no tokens produced")
	}
	return nil
}

func (c *Chunker) NounPhrases(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}
	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return nil, fmt.Errorf("tag text: %w", err)
	}
	tagged := doc.Tokens()
	tokens := make([]Token, 0, len(tagged))
	for _, tok := range tagged {
		tokens = append(tokens, Token{Text: tok.Text, Tag: tok.Tag})
	}
	return Chunk(tokens, c.limit), nil
}

// Chunk groups tagged tokens into maximal noun phrases, left to right:
// an optional determiner or possessive pronoun, then modifiers and nouns ending
// in a noun. Past participles count as modifiers only before the first noun.
// Personal pronouns form single-token phrases.
func Chunk(tokens []Token, limit int) []string {
	out := make([]string, 0)
	for i := 0; i < len(tokens) && (limit <= 0 || len(out) < limit); {
		if tokens[i].Tag == "PRP" {
			out = append(out, tokens[i].Text)
			i++
			continue
		}

		start := i
		j := i
		if isDeterminer(tokens[j].Tag) {
			j++
		}
		lastNoun := -1
	scan:
		for j < len(tokens) {
			tag := tokens[j].Tag
			switch {
			case isNoun(tag):
				lastNoun = j
			case isModifier(tag):
			case tag == "VBN" && lastNoun < 0:
			case tag == "POS" && lastNoun >= 0 && lastNoun == j-1:
			default:
				break scan
			}
			j++
		}
		if lastNoun < 0 {
			i = start + 1
			continue
		}
		out = append(out, join(tokens[start:lastNoun+1]))
		i = lastNoun + 1
	}
	return out
}

func join(tokens []Token) string {
	var b strings.Builder
	for idx, tok := range tokens {
		if idx > 0 && !strings.HasPrefix(tok.Text, "'") {
			b.WriteByte(' ')
		}
		b.WriteString(tok.Text)
	}
	return b.String()
}

func isDeterminer(tag string) bool {
	switch tag {
	case "DT", "PDT", "PRP$", "WP$":
		return true
	}
	return false
}

func isModifier(tag string) bool {
	switch tag {
	case "JJ", "JJR", "JJS", "CD":
		return true
	}
	return false
}

func isNoun(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}
