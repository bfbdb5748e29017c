package craft

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"craftchat/internal/models"
)

const maxListedClaims = 5

// FactCheck lists the numeric claims and hedge phrases a human should verify.
// It never changes the text.
func (p *Pipeline) FactCheck(text string, opts Options) (string, models.PostProcessStep) {
	claims := p.collect(p.claims, text)
	hedges := p.collect(p.hedges, text)

	step := models.PostProcessStep{Name: models.StepFactCheck, Applied: len(claims)+len(hedges) > 0}
	if !step.Applied {
		step.Description = "No verifiable claims detected"
		return text, step
	}
	var parts []string
	if len(claims) > 0 {
		parts = append(parts, fmt.Sprintf("%d numeric claim(s): %s", len(claims), listed(claims)))
	}
	if len(hedges) > 0 {
		parts = append(parts, fmt.Sprintf("unsourced hedge phrase(s): %s", listed(hedges)))
	}
	desc := "Verify " + strings.Join(parts, "; ")
	if opts.TargetRegion != "" && opts.TargetRegion != "global" {
		desc += fmt.Sprintf(". Prefer official %s sources", strings.ToUpper(opts.TargetRegion))
	}
	step.Description = desc
	return text, step
}

// collect returns distinct matches in order of first appearance.
func (p *Pipeline) collect(set []*regexp.Regexp, text string) []string {
	type hit struct {
		at   int
		text string
	}
	var hits []hit
	for _, re := range set {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			hits = append(hits, hit{at: loc[0], text: strings.TrimSpace(text[loc[0]:loc[1]])})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].at < hits[j].at })
	seen := map[string]struct{}{}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		key := strings.ToLower(h.text)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h.text)
	}
	return out
}

func listed(items []string) string {
	if len(items) > maxListedClaims {
		return strings.Join(items[:maxListedClaims], ", ") + fmt.Sprintf(" and %d more", len(items)-maxListedClaims)
	}
	return strings.Join(items, ", ")
}
