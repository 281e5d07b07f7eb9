package lexical

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize splits text into lower-cased word tokens of at least two runes.
// A word is a maximal run of letters, digits and underscores.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		if utf8.RuneCountInString(b.String()) >= 2 {
			out = append(out, b.String())
		}
		b.Reset()
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return out
}

// ContentTokens tokenizes and drops stop words.
func ContentTokens(s string) []string {
	tokens := Tokenize(s)
	out := tokens[:0]
	for _, tok := range tokens {
		if !IsStopWord(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// NGrams returns every contiguous n-gram of tokens for n in [minN, maxN],
// in document order, repeats included.
func NGrams(tokens []string, minN, maxN int) []string {
	if minN < 1 {
		minN = 1
	}
	out := make([]string, 0, len(tokens)*(maxN-minN+1))
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// Candidates returns the distinct n-grams of the content tokens of text,
// sorted by first appearance.
func Candidates(text string, minN, maxN int) []string {
	grams := NGrams(ContentTokens(text), minN, maxN)
	seen := make(map[string]struct{}, len(grams))
	out := make([]string, 0, len(grams))
	for _, g := range grams {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
