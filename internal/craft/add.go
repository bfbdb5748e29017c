package craft

import (
	"strings"

	"craftchat/internal/models"
)

// Add suggests visuals for the content. It never changes the text.
func (p *Pipeline) Add(text string) (string, models.PostProcessStep) {
	var suggestions []string
	for _, t := range p.media {
		if anyMatch(t.res, text) {
			suggestions = append(suggestions, t.suggestion)
		}
	}
	step := models.PostProcessStep{Name: models.StepAdd, Applied: len(suggestions) > 0}
	if len(suggestions) > 0 {
		step.Description = "Suggested visuals: " + strings.Join(suggestions, "; ")
	} else {
		step.Description = "No media opportunities detected"
	}
	return text, step
}
