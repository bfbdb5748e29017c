// Package router maps a raw user query to a routing decision: which provider
// answers it, and whether the answer goes through post-processing and keyword
// annotation.
package router

import (
	"fmt"
	"regexp"
	"strings"

	"craftchat/internal/models"
)

// Rule names reported in RoutingDecision.MatchedRule.
const (
	RuleContent  = "content"
	RuleResearch = "research"
	RuleComplex  = "complex"
	RuleSimple   = "simple"
	RuleLong     = "long_query"
	RuleDefault  = "default"
)

type regionMatcher struct {
	region string
	re     *regexp.Regexp
}

// Classifier is safe for concurrent use; it holds only compiled patterns.
type Classifier struct {
	content       []*regexp.Regexp
	research      []*regexp.Regexp
	complex       []*regexp.Regexp
	simple        []*regexp.Regexp
	framework     []*regexp.Regexp
	researchCombo []*regexp.Regexp
	comboTopics   []*regexp.Regexp
	longThreshold int
	regions       []regionMatcher
	defaultRegion string
}

func NewClassifier(rules Rules) (*Classifier, error) {
	rules.applyDefaults()
	c := &Classifier{longThreshold: rules.LongQueryThreshold, defaultRegion: rules.DefaultRegion}
	sets := []struct {
		name string
		src  []string
		dst  *[]*regexp.Regexp
	}{
		{"content", rules.ContentPatterns, &c.content},
		{"research", rules.ResearchPatterns, &c.research},
		{"complex", rules.ComplexPatterns, &c.complex},
		{"simple", rules.SimplePatterns, &c.simple},
		{"framework", rules.FrameworkPatterns, &c.framework},
		{"research_combo", rules.ResearchComboPatterns, &c.researchCombo},
		{"research_combo_topics", rules.ResearchComboTopics, &c.comboTopics},
	}
	for _, s := range sets {
		compiled, err := compileAll(s.src)
		if err != nil {
			return nil, fmt.Errorf("compile %s patterns: %w", s.name, err)
		}
		*s.dst = compiled
	}
	for _, r := range rules.Regions {
		for _, alias := range r.Aliases {
			alias = strings.ToLower(strings.TrimSpace(alias))
			if alias == "" {
				continue
			}
			re, err := regexp.Compile(`(^|[^a-z0-9])` + regexp.QuoteMeta(alias) + `($|[^a-z0-9])`)
			if err != nil {
				return nil, fmt.Errorf("compile region alias %q: %w", alias, err)
			}
			c.regions = append(c.regions, regionMatcher{region: r.Region, re: re})
		}
	}
	return c, nil
}

// MustNewClassifier panics on invalid rules. Intended for the built-in table.
func MustNewClassifier(rules Rules) *Classifier {
	c, err := NewClassifier(rules)
	if err != nil {
		panic(err)
	}
	return c
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

func anyMatch(set []*regexp.Regexp, s string) bool {
	for _, re := range set {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Classify is pure and total. Rule categories are checked in fixed order and
// the first match decides the provider:
//  1. content creation -> complex, post-process, keyword annotation suppressed
//  2. research         -> research, post-process, keyword annotation
//  3. complex analysis -> complex, post-process
//  4. simple lookup    -> fast
//  5. long query       -> complex, post-process
//  6. default          -> complex, post-process
//
// Two overrides then run unconditionally: framework/SEO/keyword mentions force
// post-processing and annotation, and "research" combined with a
// blog/article/trending/news topic forces the research provider.
func (c *Classifier) Classify(query string) models.RoutingDecision {
	q := strings.ToLower(query)
	var d models.RoutingDecision

	switch {
	case anyMatch(c.content, q):
		d = models.RoutingDecision{
			Complexity:          models.ComplexityComplex,
			Provider:            models.ProviderComplex,
			RequiresPostProcess: true,
			MatchedRule:         RuleContent,
		}
	case anyMatch(c.research, q):
		d = models.RoutingDecision{
			Complexity:                models.ComplexityResearch,
			Provider:                  models.ProviderResearch,
			RequiresPostProcess:       true,
			RequiresKeywordAnnotation: true,
			MatchedRule:               RuleResearch,
		}
	case anyMatch(c.complex, q):
		d = models.RoutingDecision{
			Complexity:          models.ComplexityComplex,
			Provider:            models.ProviderComplex,
			RequiresPostProcess: true,
			MatchedRule:         RuleComplex,
		}
	case anyMatch(c.simple, q):
		d = models.RoutingDecision{
			Complexity:  models.ComplexitySimple,
			Provider:    models.ProviderFast,
			MatchedRule: RuleSimple,
		}
	case len([]rune(strings.TrimSpace(query))) > c.longThreshold:
		d = models.RoutingDecision{
			Complexity:          models.ComplexityComplex,
			Provider:            models.ProviderComplex,
			RequiresPostProcess: true,
			MatchedRule:         RuleLong,
		}
	default:
		d = models.RoutingDecision{
			Complexity:          models.ComplexityComplex,
			Provider:            models.ProviderComplex,
			RequiresPostProcess: true,
			MatchedRule:         RuleDefault,
		}
	}

	if anyMatch(c.framework, q) {
		d.RequiresPostProcess = true
		d.RequiresKeywordAnnotation = true
	}
	if anyMatch(c.researchCombo, q) && anyMatch(c.comboTopics, q) {
		d.Provider = models.ProviderResearch
		d.Complexity = models.ComplexityResearch
		d.RequiresKeywordAnnotation = true
	}

	d.TargetRegion = c.Region(query)
	return d
}

// Region returns the first region whose alias appears in the query, or the
// default region.
func (c *Classifier) Region(query string) string {
	q := strings.ToLower(query)
	for _, m := range c.regions {
		if m.re.MatchString(q) {
			return m.region
		}
	}
	return c.defaultRegion
}

func (c *Classifier) DefaultRegion() string {
	return c.defaultRegion
}
