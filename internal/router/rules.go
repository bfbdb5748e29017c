package router

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RegionAlias maps literal mentions in a query to a target region code.
type RegionAlias struct {
	Region  string   `yaml:"region"`
	Aliases []string `yaml:"aliases"`
}

// Rules is the pattern table driving classification. Patterns are
// case-insensitive regular expressions.
type Rules struct {
	ContentPatterns       []string      `yaml:"content_patterns"`
	ResearchPatterns      []string      `yaml:"research_patterns"`
	ComplexPatterns       []string      `yaml:"complex_patterns"`
	SimplePatterns        []string      `yaml:"simple_patterns"`
	FrameworkPatterns     []string      `yaml:"framework_patterns"`
	ResearchComboPatterns []string      `yaml:"research_combo_patterns"`
	ResearchComboTopics   []string      `yaml:"research_combo_topics"`
	LongQueryThreshold    int           `yaml:"long_query_threshold"`
	Regions               []RegionAlias `yaml:"regions"`
	DefaultRegion         string        `yaml:"default_region"`
}

func DefaultRules() Rules {
	return Rules{
		ContentPatterns: []string{
			`\bblog(s|ging)?\b`,
			`\bblog post\b`,
			`\barticles?\b`,
			`\bcopywriting\b`,
			`\bcopy for\b`,
			`\blong[- ]form\b`,
			`\b(write|create|draft)\b.*\bguide\b`,
			`\bnewsletter\b`,
			`\blanding page\b`,
			`\bproduct descriptions?\b`,
		},
		ResearchPatterns: []string{
			`\bresearch\b`,
			`\btrends?\b`,
			`\btrending\b`,
			`\bstatistics?\b`,
			`\bstats\b`,
			`\bmarket (size|share|data|analysis)\b`,
			`\b(government|gov|academic|census|official) (data|statistics|sources?|reports?)\b`,
			`\bseo\b`,
			`\bkeyword research\b`,
			`\bsearch volume\b`,
			`\blatest (news|data|figures)\b`,
		},
		ComplexPatterns: []string{
			`\bmulti[- ]step\b`,
			`\bstrateg(y|ies|ic)\b`,
			`\boptimi[sz](e|ation|ing)\b`,
			`\bcomprehensive\b`,
			`\bthorough(ly)?\b`,
			`\bin[- ]depth\b`,
			`\bstep[- ]by[- ]step\b`,
			`\banaly[sz](e|is)\b`,
			`\bplan\b`,
		},
		SimplePatterns: []string{
			`^\s*(what|who)('s| is| are| was| were)\b`,
			`^\s*define\b`,
			`^\s*definition of\b`,
			`^\s*(hi|hello|hey|yo|howdy)\b`,
			`^\s*good (morning|afternoon|evening)\b`,
			`^\s*(thanks|thank you)\b`,
		},
		FrameworkPatterns: []string{
			`c\.r\.a\.f\.t`,
			`\bcraft (framework|method|process|pipeline)\b`,
			`\bseo\b`,
			`\bkeywords?\b`,
		},
		ResearchComboPatterns: []string{`\bresearch\b`},
		ResearchComboTopics: []string{
			`\bblog(s)?\b`,
			`\barticles?\b`,
			`\btrending\b`,
			`\bnews\b`,
		},
		LongQueryThreshold: 100,
		Regions: []RegionAlias{
			{Region: "usa", Aliases: []string{"usa", "u.s.a.", "u.s.", "united states", "america", "american"}},
			{Region: "uk", Aliases: []string{"uk", "u.k.", "united kingdom", "britain", "british", "england"}},
			{Region: "canada", Aliases: []string{"canada", "canadian"}},
			{Region: "australia", Aliases: []string{"australia", "australian"}},
			{Region: "india", Aliases: []string{"india", "indian"}},
			{Region: "germany", Aliases: []string{"germany", "german"}},
			{Region: "france", Aliases: []string{"france", "french"}},
			{Region: "spain", Aliases: []string{"spain", "spanish"}},
			{Region: "japan", Aliases: []string{"japan", "japanese"}},
			{Region: "brazil", Aliases: []string{"brazil", "brazilian"}},
			{Region: "mexico", Aliases: []string{"mexico", "mexican"}},
			{Region: "singapore", Aliases: []string{"singapore"}},
			{Region: "uae", Aliases: []string{"uae", "dubai", "united arab emirates"}},
		},
		DefaultRegion: "global",
	}
}

// LoadRules reads a YAML rule file. Sections left empty in the file keep the
// built-in defaults.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parse rules file: %w", err)
	}
	r.applyDefaults()
	return r, nil
}

func (r *Rules) applyDefaults() {
	d := DefaultRules()
	if len(r.ContentPatterns) == 0 {
		r.ContentPatterns = d.ContentPatterns
	}
	if len(r.ResearchPatterns) == 0 {
		r.ResearchPatterns = d.ResearchPatterns
	}
	if len(r.ComplexPatterns) == 0 {
		r.ComplexPatterns = d.ComplexPatterns
	}
	if len(r.SimplePatterns) == 0 {
		r.SimplePatterns = d.SimplePatterns
	}
	if len(r.FrameworkPatterns) == 0 {
		r.FrameworkPatterns = d.FrameworkPatterns
	}
	if len(r.ResearchComboPatterns) == 0 {
		r.ResearchComboPatterns = d.ResearchComboPatterns
	}
	if len(r.ResearchComboTopics) == 0 {
		r.ResearchComboTopics = d.ResearchComboTopics
	}
	if r.LongQueryThreshold <= 0 {
		r.LongQueryThreshold = d.LongQueryThreshold
	}
	if len(r.Regions) == 0 {
		r.Regions = d.Regions
	}
	if r.DefaultRegion == "" {
		r.DefaultRegion = d.DefaultRegion
	}
}
