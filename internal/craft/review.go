package craft

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"craftchat/internal/models"
)

const (
	tocHeading     = "## Table of Contents"
	linkCommentTag = "<!-- Linking opportunity:"
)

var (
	subheadingRE = regexp.MustCompile(`(?m)^(#{2,3})[ \t]+(.+?)[ \t#]*$`)
	linkRE       = regexp.MustCompile(`(?i)https?://|\]\(\s*(https?:|www\.)|<a\s+href=`)
	wordRE       = regexp.MustCompile(`[\p{L}\p{N}']+`)
	orderedRE    = regexp.MustCompile(`^\d+[.)][ \t]`)
)

// Review is the structural SEO pass. It can add a top-level heading, a table
// of contents, second-person phrasing, a focus-term conclusion and a linking
// note, in that order.
func (p *Pipeline) Review(text string, opts Options) (string, models.PostProcessStep) {
	out := text
	var notes []string

	if next, ok := ensureTitle(out, opts.FocusTerm); ok {
		out = next
		notes = append(notes, "added title heading")
	}
	if next, ok := p.insertTOC(out); ok {
		out = next
		notes = append(notes, "inserted table of contents")
	}
	if next, n := p.toSecondPerson(out); n > 0 {
		out = next
		notes = append(notes, fmt.Sprintf("rewrote %d phrase(s) in second person", n))
	}
	if next, ok := p.reinforceFocus(out, opts.FocusTerm); ok {
		out = next
		notes = append(notes, fmt.Sprintf("reinforced focus term %q", opts.FocusTerm))
	}
	if next, ok := p.noteLinkOpportunity(out, opts.TargetRegion); ok {
		out = next
		notes = append(notes, "flagged outbound linking opportunity")
	}

	step := models.PostProcessStep{Name: models.StepReview, Applied: len(notes) > 0}
	if len(notes) > 0 {
		step.Description = "Review: " + strings.Join(notes, "; ")
	} else {
		step.Description = "Structure already meets review checks"
	}
	return out, step
}

// ensureTitle turns an unheaded first line into an H1, appending the focus
// term when the line does not already mention it. Only a prose line is
// promoted; code fences, list items and tables are left as they are.
func ensureTitle(text, focus string) (string, bool) {
	lines := strings.Split(text, "\n")
	idx := -1
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return text, false
	}
	first := strings.TrimSpace(lines[idx])
	if !isProse(first) || orderedRE.MatchString(first) {
		return text, false
	}
	title := strings.TrimRight(first, " :")
	focus = strings.TrimSpace(focus)
	if focus != "" && !strings.Contains(strings.ToLower(title), strings.ToLower(focus)) {
		title += ": " + titleCase(focus)
	}
	lines[idx] = "# " + title
	return strings.Join(lines, "\n"), true
}

func (p *Pipeline) insertTOC(text string) (string, bool) {
	if utf8.RuneCountInString(text) <= p.rules.TOCMinChars || strings.Contains(text, tocHeading) {
		return text, false
	}
	heads := subheadingRE.FindAllStringSubmatch(text, -1)
	if len(heads) < p.rules.TOCMinSubheadings {
		return text, false
	}

	var b strings.Builder
	b.WriteString(tocHeading + "\n\n")
	seen := map[string]int{}
	for _, h := range heads {
		label := strings.TrimSpace(h[2])
		slug := Slugify(label)
		if n := seen[slug]; n > 0 {
			seen[slug] = n + 1
			slug = fmt.Sprintf("%s-%d", slug, n)
		} else {
			seen[slug] = 1
		}
		indent := ""
		if h[1] == "###" {
			indent = "  "
		}
		fmt.Fprintf(&b, "%s- [%s](#%s)\n", indent, label, slug)
	}

	// after the H1 when there is one, otherwise at the top
	lines := strings.SplitAfter(text, "\n")
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "# ") {
			head := strings.Join(lines[:i+1], "")
			if !strings.HasSuffix(head, "\n") {
				head += "\n"
			}
			return head + "\n" + b.String() + "\n" + strings.TrimLeft(strings.Join(lines[i+1:], ""), "\n"), true
		}
	}
	return b.String() + "\n" + text, true
}

func (p *Pipeline) toSecondPerson(text string) (string, int) {
	total := 0
	out := text
	for _, r := range p.secondPerson {
		to := r.to
		out = r.re.ReplaceAllStringFunc(out, func(m string) string {
			total++
			first, _ := utf8.DecodeRuneInString(m)
			if unicode.IsUpper(first) {
				return capitalize(to)
			}
			return to
		})
	}
	return out, total
}

func (p *Pipeline) reinforceFocus(text, focus string) (string, bool) {
	focus = strings.TrimSpace(focus)
	if focus == "" {
		return text, false
	}
	words := len(wordRE.FindAllString(text, -1))
	if words == 0 {
		return text, false
	}
	re := regexp.MustCompile(`(?i)\b` + phrasePattern(focus) + `\b`)
	hits := len(re.FindAllStringIndex(text, -1))
	termWords := len(strings.Fields(focus))
	density := float64(hits*termWords) / float64(words)
	if density >= p.rules.FocusDensity {
		return text, false
	}
	para := fmt.Sprintf("In short, getting %s right comes down to applying these ideas consistently and measuring what works for you.", focus)
	return strings.TrimRight(text, "\n") + "\n\n" + para, true
}

func (p *Pipeline) noteLinkOpportunity(text, region string) (string, bool) {
	if utf8.RuneCountInString(text) <= p.rules.LinkMinChars || linkRE.MatchString(text) || strings.Contains(text, linkCommentTag) {
		return text, false
	}
	sources := "authoritative sources"
	if region != "" && region != "global" {
		sources = "authoritative " + strings.ToUpper(region) + " sources"
	}
	comment := fmt.Sprintf("%s add 2-3 outbound links to %s. -->", linkCommentTag, sources)
	return strings.TrimRight(text, "\n") + "\n\n" + comment, true
}

// Slugify produces the anchor most markdown renderers generate for a heading.
func Slugify(heading string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(heading) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-' || r == '_':
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}
