package providers

import (
	"fmt"
	"strings"

	"craftchat/internal/models"
)

// formattingContract is shared by every backend so the output arrives as
// structured markdown the client can render directly.
const formattingContract = "Format every answer as clean Markdown: use headings (##, ###) for sections, " +
	"bullet or numbered lists for steps and enumerations, and Markdown tables for comparisons or figures. " +
	"Do not wrap the whole answer in a code block."

func fastSystemPrompt() string {
	return "You are a helpful assistant. Answer briefly and directly. " + formattingContract
}

func researchSystemPrompt(region string) string {
	b := strings.Builder{}
	b.WriteString("You are a research analyst producing sourced, up-to-date reports. ")
	b.WriteString("Cite every factual claim. Prefer primary sources: government statistics offices, academic publications, and recognized industry bodies. ")
	if region != "" && region != "global" {
		fmt.Fprintf(&b, "The target market is %s; favor authorities and data published for that region. ", strings.ToUpper(region))
	}
	b.WriteString(formattingContract)
	return b.String()
}

func complexSystemPrompt(d models.RoutingDecision) string {
	b := strings.Builder{}
	b.WriteString("You are an expert writer and strategist. Produce structured, long-form content with a clear introduction, ")
	b.WriteString("logically ordered sections, and an actionable conclusion. Address the reader directly. ")
	if d.TargetRegion != "" && d.TargetRegion != "global" {
		fmt.Fprintf(&b, "Write for an audience in %s. ", strings.ToUpper(d.TargetRegion))
	}
	b.WriteString(formattingContract)
	return b.String()
}

// recentHistory returns at most limit trailing messages with non-empty
// content.
func recentHistory(history []models.Message, limit int) []models.Message {
	out := make([]models.Message, 0, len(history))
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, m)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
