package export

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Highlight wraps every case-insensitive whole-word match of a keyword in
// "**". Longer keywords win over keywords they contain. Word boundaries
// follow Unicode letters and digits, so "café" matches but "cafés" does not.
func Highlight(text string, keywords []string) string {
	unique := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		key := strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, kw)
	}
	if len(unique) == 0 || text == "" {
		return text
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return len(unique[i]) > len(unique[j])
	})

	patterns := make([]*regexp.Regexp, 0, len(unique))
	for _, kw := range unique {
		words := strings.Fields(kw)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		patterns = append(patterns, regexp.MustCompile(`(?i)^(?:`+strings.Join(words, `\s+`)+`)`))
	}

	var b strings.Builder
	last := 0
	for pos := 0; pos < len(text); {
		end := -1
		if atWordStart(text, pos) {
			end = matchAt(text, pos, patterns)
		}
		if end < 0 {
			_, size := utf8.DecodeRuneInString(text[pos:])
			pos += size
			continue
		}
		b.WriteString(text[last:pos])
		b.WriteString("**")
		b.WriteString(text[pos:end])
		b.WriteString("**")
		last, pos = end, end
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// matchAt returns the end of the first pattern matching a whole word run at
// pos, or -1.
func matchAt(text string, pos int, patterns []*regexp.Regexp) int {
	for _, pattern := range patterns {
		loc := pattern.FindStringIndex(text[pos:])
		if loc == nil {
			continue
		}
		end := pos + loc[1]
		if end < len(text) {
			if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
				continue
			}
		}
		return end
	}
	return -1
}

func atWordStart(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
