package craft

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCutRemovesFillerAndTidies(t *testing.T) {
	p := newPipeline(t)
	out, step := p.Cut("Basically, it is important to note that the sky is very blue.")
	assert.Equal(t, "The sky is blue.", out)
	assert.True(t, step.Applied)
	assert.Equal(t, "cut", step.Name)
	assert.Contains(t, step.Description, "3")
}

func TestCutLeavesCleanTextUntouched(t *testing.T) {
	p := newPipeline(t)
	in := "## Heading\n\n- Solar panels  convert light.\n"
	out, step := p.Cut(in)
	assert.Equal(t, in, out)
	assert.False(t, step.Applied)
}

func TestCutIsIdempotent(t *testing.T) {
	p := newPipeline(t)
	inputs := []string{
		"It is really really good.",
		"- very fast\n- actually cheap, quite reliable",
		"Needless to say, at the end of the day you literally win.",
		"Every word here is fine.",
		"# Title\n\nTo be honest , it is worth noting that , results vary.",
		"",
	}
	for _, in := range inputs {
		once, _ := p.Cut(in)
		twice, step := p.Cut(once)
		assert.Equal(t, once, twice, in)
		assert.False(t, step.Applied, in)
	}
}

func TestCutLeavesMarkupAndCompoundsAlone(t *testing.T) {
	p := newPipeline(t)
	inputs := []string{
		"This is a very-high priority task.",
		"Read https://example.com/really-good-post today.",
		"See [the guide](https://example.com/really/basically) first.",
		"Use e.g. solar.",
		"```go\nx := 1    // very aligned\n```",
		"Wrap `very` in backticks.",
		"A really/truly hard choice.",
	}
	for _, in := range inputs {
		out, step := p.Cut(in)
		assert.Equal(t, in, out, in)
		assert.False(t, step.Applied, in)
	}
}

func TestCutRepairsOnlyTheRemovalSite(t *testing.T) {
	p := newPipeline(t)
	in := "| a  | b   |\n|----|-----|\n\nx := 1    // aligned\n\n" +
		"```go\ny := 2    // very aligned\n```\n\n" +
		"It is very good. e.g. basically fine. Wrap `very` carefully."
	want := "| a  | b   |\n|----|-----|\n\nx := 1    // aligned\n\n" +
		"```go\ny := 2    // very aligned\n```\n\n" +
		"It is good. e.g. fine. Wrap `very` carefully."
	out, step := p.Cut(in)
	assert.Equal(t, want, out)
	assert.True(t, step.Applied)
	assert.Contains(t, step.Description, "2")
}

func TestCutCapitalisesOnlyNewSentenceStarts(t *testing.T) {
	p := newPipeline(t)
	out, _ := p.Cut("- Actually, solar works.\n- it is very cheap.\n\nThat is Very true. Really, it pays.")
	assert.Equal(t, "- Solar works.\n- it is cheap.\n\nThat is true. It pays.", out)
}

func TestReviewAddsTitleWithFocusTerm(t *testing.T) {
	p := newPipeline(t)
	out, step := p.Review("Solar power basics\n\nSome text.", Options{FocusTerm: "solar energy"})
	assert.Equal(t, "# Solar power basics: Solar Energy\n\nSome text.", out)
	assert.True(t, step.Applied)
}

func TestReviewLeavesShortHeadedTextAlone(t *testing.T) {
	p := newPipeline(t)
	in := "# Title\n\nShort body."
	out, step := p.Review(in, Options{})
	assert.Equal(t, in, out)
	assert.False(t, step.Applied)
}

func TestReviewLeavesNonProseFirstLineAlone(t *testing.T) {
	p := newPipeline(t)
	inputs := []string{
		"```python\nprint('hi')\n```",
		"- item one\n- item two",
		"1. first step\n2. second step",
		"| col | val |\n|-----|-----|\n| a   | 1   |",
		"> quoted advice",
	}
	for _, in := range inputs {
		out, step := p.Review(in, Options{})
		assert.Equal(t, in, out, in)
		assert.False(t, step.Applied, in)
	}
}

func TestReviewSecondPerson(t *testing.T) {
	p := newPipeline(t)
	out, _ := p.Review("# T\n\nOne should always check the wiring. The reader can skip this.", Options{})
	assert.Equal(t, "# T\n\nYou should always check the wiring. You can skip this.", out)
}

func longSection(sentence string, n int) string {
	return strings.Repeat(sentence, n) + "\n\n"
}

func TestReviewInsertsTableOfContents(t *testing.T) {
	p := newPipeline(t)
	body := "# Solar Guide\n\nAn introduction.\n\n" +
		"## Getting Started\n\n" + longSection("Panels turn sunlight into electricity for homes. ", 20) +
		"## Costs & Savings\n\n" + longSection("Installation pays for itself over several years. ", 20) +
		"### Getting Started\n\n" + longSection("Repeat headings get a numbered anchor. ", 5) +
		"## Next Steps\n\nCall an installer at https://example.com for a quote."
	require.Greater(t, len(body), 2000)

	out, step := p.Review(body, Options{})
	require.True(t, step.Applied)
	assert.Contains(t, out, "# Solar Guide\n\n## Table of Contents\n\n- [Getting Started](#getting-started)\n")
	assert.Contains(t, out, "- [Costs & Savings](#costs-savings)\n")
	assert.Contains(t, out, "  - [Getting Started](#getting-started-1)\n")
	assert.Contains(t, out, "- [Next Steps](#next-steps)\n")
	assert.NotContains(t, out, linkCommentTag)

	again, _ := p.Review(out, Options{})
	assert.Equal(t, 1, strings.Count(again, tocHeading))
}

func TestReviewReinforcesFocusAndFlagsLinks(t *testing.T) {
	p := newPipeline(t)
	body := "# Home Heating\n\n" + strings.Repeat("Insulation keeps warm air inside during winter. ", 40)
	out, step := p.Review(body, Options{FocusTerm: "heat pumps", TargetRegion: "usa"})
	require.True(t, step.Applied)
	conclusion := strings.Index(out, "In short, getting heat pumps right")
	comment := strings.Index(out, linkCommentTag)
	require.Greater(t, conclusion, 0)
	require.Greater(t, comment, conclusion)
	assert.Contains(t, out, "authoritative USA sources")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "costs-savings", Slugify("Costs & Savings!"))
	assert.Equal(t, "step-1-plan", Slugify("Step 1: Plan"))
	assert.Equal(t, "whats-new", Slugify("What's New"))
}

func TestAddSuggestsWithoutMutating(t *testing.T) {
	p := newPipeline(t)
	in := "Compare the data: 45% of buyers chose heat pumps."
	out, step := p.Add(in)
	assert.Equal(t, in, out)
	assert.True(t, step.Applied)
	assert.Contains(t, step.Description, "chart")
	assert.Contains(t, step.Description, "comparison table")

	_, step = p.Add("Hello there.")
	assert.False(t, step.Applied)
}

func TestFactCheckListsClaims(t *testing.T) {
	p := newPipeline(t)
	in := "Studies show that 45% of homes saved money, and 3 million people switched."
	out, step := p.FactCheck(in, Options{TargetRegion: "usa"})
	assert.Equal(t, in, out)
	assert.True(t, step.Applied)
	assert.Contains(t, step.Description, "45%")
	assert.Contains(t, step.Description, "3 million")
	assert.Contains(t, step.Description, "Studies show")
	assert.Contains(t, step.Description, "USA")

	_, step = p.FactCheck("Nothing to verify here.", Options{})
	assert.False(t, step.Applied)
}

func TestTrustBuildFramesAndSigns(t *testing.T) {
	p := newPipeline(t)
	opts := Options{Author: "Ada", Now: fixedNow}
	out, step := p.TrustBuild("# Title\n\nSolar panels are efficient.", opts)
	assert.True(t, step.Applied)
	assert.Equal(t, "# Title\n\nHere's what you need to know: Solar panels are efficient.\n\n---\n\n*Written by Ada · Updated March 4, 2025*", out)

	again, step := p.TrustBuild(out, opts)
	assert.Equal(t, out, again)
	assert.False(t, step.Applied)
}
