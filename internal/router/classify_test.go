package router

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"craftchat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefault(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultRules())
	require.NoError(t, err)
	return c
}

func TestClassifyPrecedence(t *testing.T) {
	c := newDefault(t)
	tests := []struct {
		name        string
		query       string
		provider    models.ProviderID
		complexity  models.Complexity
		postProcess bool
		keywords    bool
		rule        string
	}{
		{"greeting", "hello", models.ProviderFast, models.ComplexitySimple, false, false, RuleSimple},
		{"what_is", "what is photosynthesis", models.ProviderFast, models.ComplexitySimple, false, false, RuleSimple},
		{"define", "define entropy", models.ProviderFast, models.ComplexitySimple, false, false, RuleSimple},
		{"blog", "write a blog post about renewable energy", models.ProviderComplex, models.ComplexityComplex, true, false, RuleContent},
		{"article_beats_analysis", "write a comprehensive article on remote work", models.ProviderComplex, models.ComplexityComplex, true, false, RuleContent},
		{"research_stats", "latest statistics on electric vehicle adoption", models.ProviderResearch, models.ComplexityResearch, true, true, RuleResearch},
		{"complex_strategy", "build a pricing strategy for my bakery", models.ProviderComplex, models.ComplexityComplex, true, false, RuleComplex},
		{"research_beats_simple", "what is the trend in housing prices", models.ProviderResearch, models.ComplexityResearch, true, true, RuleResearch},
		{"medium_default", "tell me about volcanoes", models.ProviderComplex, models.ComplexityComplex, true, false, RuleDefault},
		{"empty_default", "", models.ProviderComplex, models.ComplexityComplex, true, false, RuleDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Classify(tt.query)
			assert.Equal(t, tt.provider, d.Provider)
			assert.Equal(t, tt.complexity, d.Complexity)
			assert.Equal(t, tt.postProcess, d.RequiresPostProcess)
			assert.Equal(t, tt.keywords, d.RequiresKeywordAnnotation)
			assert.Equal(t, tt.rule, d.MatchedRule)
		})
	}
}

func TestClassifyLongQueryGoesComplex(t *testing.T) {
	c := newDefault(t)
	q := strings.Repeat("tell me more about the mountains near the lake ", 3)
	require.Greater(t, len(q), 100)
	d := c.Classify(q)
	assert.Equal(t, models.ProviderComplex, d.Provider)
	assert.True(t, d.RequiresPostProcess)
	assert.Equal(t, RuleLong, d.MatchedRule)
}

func TestClassifyResearchWithoutContentAlwaysAnnotates(t *testing.T) {
	c := newDefault(t)
	queries := []string{
		"research current SEO trends in the USA",
		"government data on unemployment",
		"market size of plant based meat",
		"keyword research for running shoes",
		"show me statistics about coffee consumption",
	}
	for _, q := range queries {
		d := c.Classify(q)
		assert.Equal(t, models.ProviderResearch, d.Provider, q)
		assert.True(t, d.RequiresKeywordAnnotation, q)
	}
}

func TestClassifySEOAndKeywordOverride(t *testing.T) {
	c := newDefault(t)
	queries := []string{
		"hello, can you help with SEO",
		"write a blog post with good keywords",
		"Write an ARTICLE optimized for seo",
		"define keyword",
		"apply the C.R.A.F.T framework to my draft",
	}
	for _, q := range queries {
		d := c.Classify(q)
		assert.True(t, d.RequiresPostProcess, q)
		assert.True(t, d.RequiresKeywordAnnotation, q)
	}
}

func TestClassifyResearchComboOverride(t *testing.T) {
	c := newDefault(t)
	d := c.Classify("research and write a blog about trending sneakers")
	assert.Equal(t, models.ProviderResearch, d.Provider)
	assert.Equal(t, models.ComplexityResearch, d.Complexity)
	assert.True(t, d.RequiresKeywordAnnotation)
	assert.Equal(t, RuleContent, d.MatchedRule)
}

func TestClassifyRegion(t *testing.T) {
	c := newDefault(t)
	assert.Equal(t, "usa", c.Classify("research current SEO trends in the USA").TargetRegion)
	assert.Equal(t, "uk", c.Classify("best mortgage rates in the United Kingdom").TargetRegion)
	assert.Equal(t, "india", c.Classify("Indian startup funding statistics").TargetRegion)
	assert.Equal(t, "global", c.Classify("tell us something fun").TargetRegion)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := newDefault(t)
	q := "analyze the SEO strategy of my article"
	first := c.Classify(q)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, c.Classify(q))
	}
}

func TestNewClassifierRejectsBadPattern(t *testing.T) {
	r := DefaultRules()
	r.SimplePatterns = []string{"(unclosed"}
	_, err := NewClassifier(r)
	require.Error(t, err)
}

func TestLoadRulesKeepsDefaultsForOmittedSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := "simple_patterns:\n  - '^\\s*yo\\b'\ndefault_region: eu\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	r, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{`^\s*yo\b`}, r.SimplePatterns)
	assert.Equal(t, "eu", r.DefaultRegion)
	assert.Equal(t, DefaultRules().ContentPatterns, r.ContentPatterns)
	assert.Equal(t, 100, r.LongQueryThreshold)

	c, err := NewClassifier(r)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderFast, c.Classify("yo").Provider)
	assert.Equal(t, models.ProviderComplex, c.Classify("hello").Provider)
	assert.Equal(t, "eu", c.Classify("yo").TargetRegion)
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Validate(""), ErrEmptyQuery)
	assert.ErrorIs(t, Validate("   \n\t"), ErrEmptyQuery)
	assert.ErrorIs(t, Validate(strings.Repeat("a", MaxQueryLength+1)), ErrQueryTooLong)
	assert.NoError(t, Validate("hello"))
}
