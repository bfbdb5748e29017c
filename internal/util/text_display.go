package util

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Snippet cleans s for single-line display and cuts it to maxRunes, marking
// the cut with an ellipsis.
func Snippet(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = 420
	}
	s = normalizeWhitespace(SanitizeText(s))
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsPrint(r) {
			out = append(out, r)
		}
	}
	if len(out) <= maxRunes {
		return string(out)
	}
	return strings.TrimSpace(string(out[:maxRunes])) + "…"
}

// FirstLine returns the first non-blank line of s, with markdown heading
// markers removed.
func FirstLine(s string) string {
	for _, l := range strings.Split(s, "\n") {
		l = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(l), "#"))
		if l != "" {
			return l
		}
	}
	return ""
}

// MeaningfulTerms lowercases s and returns its distinct words in order,
// without punctuation and common stop words.
func MeaningfulTerms(s string) []string {
	s = strings.ToLower(normalizeWhitespace(restoreWordBoundaries(SanitizeText(s))))
	fields := strings.Fields(s)
	uniq := map[string]struct{}{}
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ",.;:!?()[]{}\"'`")
		if utf8.RuneCountInString(f) < 2 {
			continue
		}
		if _, ok := stopWords[f]; ok {
			continue
		}
		if _, ok := uniq[f]; ok {
			continue
		}
		uniq[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "to": {}, "of": {}, "in": {}, "on": {},
	"for": {}, "is": {}, "are": {}, "was": {}, "were": {}, "what": {}, "how": {}, "why": {},
	"which": {}, "that": {}, "this": {}, "these": {}, "those": {}, "with": {}, "from": {}, "across": {},
	"at": {}, "by": {}, "be": {}, "it": {}, "its": {}, "as": {}, "do": {}, "does": {}, "i": {},
}

// restoreWordBoundaries splits glued tokens such as "seoTips2025".
func restoreWordBoundaries(s string) string {
	if s == "" {
		return s
	}
	in := []rune(s)
	out := make([]rune, 0, len(in)+len(in)/8)
	for i, r := range in {
		if i > 0 && needBoundary(in[i-1], r) && !unicode.IsSpace(out[len(out)-1]) {
			out = append(out, ' ')
		}
		out = append(out, r)
	}
	return string(out)
}

func needBoundary(a, b rune) bool {
	if unicode.IsLower(a) && unicode.IsUpper(b) {
		return true
	}
	if unicode.IsLetter(a) && unicode.IsDigit(b) {
		return true
	}
	if unicode.IsDigit(a) && unicode.IsLetter(b) {
		return true
	}
	return false
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
