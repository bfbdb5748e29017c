package craft

import (
	"fmt"
	"strings"

	"craftchat/internal/models"
)

const footerPrefix = "*Written by "

// TrustBuild adds an authorship footer when one is missing and, for text that
// never addresses the reader, opens the first paragraph in second person.
func (p *Pipeline) TrustBuild(text string, opts Options) (string, models.PostProcessStep) {
	out := text
	var notes []string

	if !anyMatch(p.conversation, out) {
		if next, ok := p.frameFirstParagraph(out); ok {
			out = next
			notes = append(notes, "framed opening for the reader")
		}
	}
	if !strings.Contains(out, footerPrefix) {
		footer := fmt.Sprintf("%s%s · Updated %s*", footerPrefix, opts.Author, opts.Now.Format("January 2, 2006"))
		out = strings.TrimRight(out, "\n") + "\n\n---\n\n" + footer
		notes = append(notes, "added authorship footer")
	}

	step := models.PostProcessStep{Name: models.StepTrustBuild, Applied: len(notes) > 0}
	if len(notes) > 0 {
		step.Description = "Trust: " + strings.Join(notes, "; ")
	} else {
		step.Description = "Authorship and reader framing already present"
	}
	return out, step
}

// frameFirstParagraph prefixes the first prose line, skipping headings, lists,
// tables, comments and block quotes.
func (p *Pipeline) frameFirstParagraph(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" || !isProse(t) {
			continue
		}
		lines[i] = p.rules.FramingPhrase + " " + t
		return strings.Join(lines, "\n"), true
	}
	return text, false
}

func isProse(line string) bool {
	for _, prefix := range []string{"#", "-", "*", "+", "|", ">", "<!--", "```", "---"} {
		if strings.HasPrefix(line, prefix) {
			return false
		}
	}
	return true
}
