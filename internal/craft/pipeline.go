// Package craft implements the five-stage C.R.A.F.T post-processing pass:
// Cut, Review, Add, Fact-check and Trust-build.
package craft

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"craftchat/internal/models"
)

type Options struct {
	TargetRegion string
	FocusTerm    string
	Author       string
	// Now stamps the trust footer. Zero means the pipeline clock.
	Now time.Time
}

type Result struct {
	Text  string                   `json:"text"`
	Steps []models.PostProcessStep `json:"steps"`
}

// PipelineError reports a stage that panicked. The caller keeps the original
// provider text when it sees one.
type PipelineError struct {
	Stage string
	Cause any
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("post-process stage %s failed: %v", e.Stage, e.Cause)
}

type replacement struct {
	re *regexp.Regexp
	to string
}

type mediaTrigger struct {
	name       string
	res        []*regexp.Regexp
	suggestion string
}

// Pipeline is safe for concurrent use once built.
type Pipeline struct {
	rules        Rules
	fillers      []*regexp.Regexp
	secondPerson []replacement
	media        []mediaTrigger
	claims       []*regexp.Regexp
	hedges       []*regexp.Regexp
	conversation []*regexp.Regexp
	stages       []stage
	now          func() time.Time
}

type stage struct {
	name string
	run  func(p *Pipeline, text string, opts Options) (string, models.PostProcessStep)
}

// defaultStages is the fixed execution order. Review counts focus-term density on
// text Cut has already cleaned, and Trust-build stamps the final text.
var defaultStages = []stage{
	{models.StepCut, func(p *Pipeline, text string, _ Options) (string, models.PostProcessStep) { return p.Cut(text) }},
	{models.StepReview, (*Pipeline).Review},
	{models.StepAdd, func(p *Pipeline, text string, _ Options) (string, models.PostProcessStep) { return p.Add(text) }},
	{models.StepFactCheck, (*Pipeline).FactCheck},
	{models.StepTrustBuild, (*Pipeline).TrustBuild},
}

func NewPipeline(rules Rules) (*Pipeline, error) {
	rules.applyDefaults()
	p := &Pipeline{rules: rules, stages: defaultStages, now: time.Now}

	for _, f := range rules.Fillers {
		re, err := regexp.Compile(`(?i)\b` + phrasePattern(f) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("compile filler %q: %w", f, err)
		}
		p.fillers = append(p.fillers, re)
	}
	for _, r := range rules.SecondPerson {
		re, err := regexp.Compile(`(?i)\b` + phrasePattern(r.From) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("compile phrasing %q: %w", r.From, err)
		}
		p.secondPerson = append(p.secondPerson, replacement{re: re, to: r.To})
	}
	for _, t := range rules.MediaTriggers {
		res, err := compileAll(t.Patterns)
		if err != nil {
			return nil, fmt.Errorf("compile media trigger %s: %w", t.Name, err)
		}
		p.media = append(p.media, mediaTrigger{name: t.Name, res: res, suggestion: t.Suggestion})
	}
	var err error
	if p.claims, err = compileAll(rules.ClaimPatterns); err != nil {
		return nil, fmt.Errorf("compile claim patterns: %w", err)
	}
	hedges := make([]string, 0, len(rules.HedgePhrases))
	for _, h := range rules.HedgePhrases {
		hedges = append(hedges, `\b`+phrasePattern(h)+`\b`)
	}
	if p.hedges, err = compileAll(hedges); err != nil {
		return nil, fmt.Errorf("compile hedge phrases: %w", err)
	}
	if p.conversation, err = compileAll(rules.ConversationalMarkers); err != nil {
		return nil, fmt.Errorf("compile conversational markers: %w", err)
	}
	return p, nil
}

func MustNewPipeline(rules Rules) *Pipeline {
	p, err := NewPipeline(rules)
	if err != nil {
		panic(err)
	}
	return p
}

// WithClock returns a copy of p that stamps footers using now.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	cp := *p
	cp.now = now
	return &cp
}

// Process runs every stage in order and returns exactly one step record per
// stage. If a stage panics, the original text is returned with no steps.
func (p *Pipeline) Process(text string, opts Options) (res Result, err error) {
	current := "setup"
	defer func() {
		if r := recover(); r != nil {
			res = Result{Text: text, Steps: []models.PostProcessStep{}}
			err = &PipelineError{Stage: current, Cause: r}
		}
	}()
	if opts.Now.IsZero() {
		opts.Now = p.now()
	}
	if strings.TrimSpace(opts.Author) == "" {
		opts.Author = p.rules.DefaultAuthor
	}

	out := text
	steps := make([]models.PostProcessStep, 0, len(p.stages))
	for _, s := range p.stages {
		current = s.name
		var step models.PostProcessStep
		out, step = s.run(p, out, opts)
		step.Name = s.name
		steps = append(steps, step)
	}
	return Result{Text: out, Steps: steps}, nil
}

// StageNames lists the stages in execution order.
func StageNames() []string {
	out := make([]string, len(defaultStages))
	for i, s := range defaultStages {
		out[i] = s.name
	}
	return out
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

// phrasePattern quotes a phrase and lets any run of spaces separate its words.
func phrasePattern(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(words, `\s+`)
}

func anyMatch(set []*regexp.Regexp, s string) bool {
	for _, re := range set {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
