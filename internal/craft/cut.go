package craft

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"craftchat/internal/models"
)

var (
	// fenced blocks, inline code, link targets and bare URLs are never edited
	protectedRE  = regexp.MustCompile("(?s)```.*?(?:```|$)|`[^`\n]*`|\\]\\([^)\\s]*\\)|(?:https?://|www\\.)[^\\s)>\\]]+")
	lineMarkerRE = regexp.MustCompile(`^(?:[-*+>]|#{1,6}|\d+\.)?$`)
)

// Cut strips filler words and throat-clearing phrases. Whitespace and
// capitalisation are repaired only where a phrase was removed; the rest of
// the text is left byte for byte. Cut(Cut(x)) == Cut(x).
func (p *Pipeline) Cut(text string) (string, models.PostProcessStep) {
	removed := 0
	out := text
	for {
		next, n := p.cutOnce(out)
		if n == 0 {
			break
		}
		removed += n
		out = next
	}
	step := models.PostProcessStep{Name: models.StepCut, Applied: removed > 0}
	if removed > 0 {
		step.Description = fmt.Sprintf("Removed %d filler word(s) and phrase(s)", removed)
	} else {
		step.Description = "No filler words found"
	}
	return out, step
}

func (p *Pipeline) cutOnce(text string) (string, int) {
	removed := 0
	out := text
	for _, re := range p.fillers {
		var n int
		out, n = removeFiller(out, re)
		removed += n
	}
	return out, removed
}

func removeFiller(s string, re *regexp.Regexp) (string, int) {
	locs := re.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s, 0
	}
	protected := protectedRE.FindAllStringIndex(s, -1)

	buf := make([]byte, 0, len(s))
	last, n := 0, 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if overlaps(protected, start, end) || compounded(s, start, end) {
			continue
		}
		leading, _ := utf8.DecodeRuneInString(s[start:])
		end = skipTrailing(s, end)

		buf = append(buf, s[last:start]...)
		last = end
		n++

		rest := s[end:]
		if rest == "" || strings.ContainsAny(rest[:1], ",.;:!?\n") {
			buf = []byte(strings.TrimRight(string(buf), " \t"))
		}
		if unicode.IsUpper(leading) && startsSentence(buf) {
			r, size := utf8.DecodeRuneInString(rest)
			if unicode.IsLower(r) {
				buf = utf8.AppendRune(buf, unicode.ToUpper(r))
				last += size
			}
		}
	}
	if n == 0 {
		return s, 0
	}
	buf = append(buf, s[last:]...)
	return string(buf), n
}

func overlaps(spans [][]int, start, end int) bool {
	for _, sp := range spans {
		if start < sp[1] && end > sp[0] {
			return true
		}
	}
	return false
}

// compounded reports a match glued to a hyphen or slash, as in "very-high".
func compounded(s string, start, end int) bool {
	if start > 0 && (s[start-1] == '-' || s[start-1] == '/') {
		return true
	}
	return end < len(s) && (s[end] == '-' || s[end] == '/')
}

// skipTrailing extends a match over the comma and blanks that belonged to it.
func skipTrailing(s string, end int) int {
	i := end
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	if i < len(s) && s[i] == ',' {
		i++
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
	}
	return i
}

func startsSentence(prefix []byte) bool {
	trimmed := strings.TrimRight(string(prefix), " \t")
	if trimmed == "" {
		return true
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?', '\n':
		return true
	}
	line := trimmed[strings.LastIndexByte(trimmed, '\n')+1:]
	return lineMarkerRE.MatchString(strings.TrimSpace(line))
}
