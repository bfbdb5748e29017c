package keywords

// Domain adds synonyms when the topic mentions one of its markers.
type Domain struct {
	Name     string
	Markers  []string
	Synonyms []string
}

// IntentRule assigns Intent to a term containing any of its markers. Rules are
// checked in order.
type IntentRule struct {
	Intent  string
	Markers []string
}

// Tables is the data behind the simulation. Templates use %s for the topic.
type Tables struct {
	Templates          []string
	Domains            []Domain
	RegionMultipliers  map[string]float64
	DefaultMultiplier  float64
	PopularityMarkers  []string
	PopularityBoost    float64
	CompetitiveMarkers []string
	LongTailWords      int
	Intents            []IntentRule
	DefaultIntent      string
	IgnoreWords        []string
	MaxTopicWords      int
}

const (
	DifficultyHigh   = "High"
	DifficultyMedium = "Medium"
	DifficultyLow    = "Low"
)

func DefaultTables() Tables {
	return Tables{
		Templates: []string{
			"best %s",
			"%s guide",
			"how to %s",
			"%s tips",
			"%s for beginners",
			"%s 2025",
			"%s vs alternatives",
		},
		Domains: []Domain{
			{Name: "seo", Markers: []string{"seo", "search engine"}, Synonyms: []string{"search engine optimization", "seo tools", "seo strategy", "keyword research"}},
			{Name: "marketing", Markers: []string{"marketing", "advertising", "ads"}, Synonyms: []string{"digital marketing", "content marketing", "marketing strategy"}},
			{Name: "ai", Markers: []string{"ai", "artificial intelligence", "machine learning", "llm"}, Synonyms: []string{"ai tools", "artificial intelligence", "generative ai"}},
			{Name: "energy", Markers: []string{"solar", "renewable", "energy"}, Synonyms: []string{"renewable energy", "solar panels", "clean energy"}},
			{Name: "finance", Markers: []string{"invest", "investing", "stocks", "finance", "budget"}, Synonyms: []string{"personal finance", "investing for beginners", "budgeting"}},
			{Name: "fitness", Markers: []string{"fitness", "workout", "exercise", "running"}, Synonyms: []string{"workout plan", "home workouts", "fitness tips"}},
			{Name: "ecommerce", Markers: []string{"ecommerce", "e-commerce", "online store", "shopify"}, Synonyms: []string{"online store", "ecommerce platform", "dropshipping"}},
		},
		RegionMultipliers: map[string]float64{
			"global":    1.5,
			"usa":       1.0,
			"india":     0.9,
			"uk":        0.45,
			"brazil":    0.45,
			"germany":   0.4,
			"japan":     0.4,
			"france":    0.35,
			"canada":    0.3,
			"spain":     0.3,
			"mexico":    0.3,
			"australia": 0.25,
			"uae":       0.12,
			"singapore": 0.1,
		},
		DefaultMultiplier:  0.5,
		PopularityMarkers:  []string{"ai", "seo", "marketing", "how to", "best"},
		PopularityBoost:    1.5,
		CompetitiveMarkers: []string{"best", "top", "review", "reviews", "vs"},
		LongTailWords:      4,
		Intents: []IntentRule{
			{Intent: "Commercial", Markers: []string{"best", "top", "review", "reviews", "cheap", "price", "pricing", "deal"}},
			{Intent: "Navigational", Markers: []string{"login", "website", "official", "near me", "app"}},
			{Intent: "Transactional", Markers: []string{"buy", "order", "coupon", "discount", "download", "hire"}},
			{Intent: "Research", Markers: []string{"statistics", "stats", "data", "trends", "research", "study", "report"}},
			{Intent: "Comparison", Markers: []string{"vs", "versus", "alternatives", "compare", "comparison"}},
		},
		DefaultIntent: "Informational",
		IgnoreWords: []string{
			"research", "write", "create", "draft", "find", "show", "tell", "give", "explain", "analyze",
			"list", "help", "need", "want", "please", "can", "you", "could", "would", "about", "current",
			"latest", "recent", "today", "blog", "post", "article", "me", "my", "our", "some",
			"usa", "us", "u.s", "america", "american", "united", "states", "uk", "britain", "british",
			"kingdom", "england", "canada", "canadian", "australia", "australian", "india", "indian",
			"germany", "german", "france", "french", "spain", "spanish", "japan", "japanese", "brazil",
			"brazilian", "mexico", "mexican", "singapore", "uae", "dubai", "global", "worldwide",
		},
		MaxTopicWords: 4,
	}
}

func (t *Tables) applyDefaults() {
	d := DefaultTables()
	if len(t.Templates) == 0 {
		t.Templates = d.Templates
	}
	if len(t.Domains) == 0 {
		t.Domains = d.Domains
	}
	if len(t.RegionMultipliers) == 0 {
		t.RegionMultipliers = d.RegionMultipliers
	}
	if t.DefaultMultiplier <= 0 {
		t.DefaultMultiplier = d.DefaultMultiplier
	}
	if len(t.PopularityMarkers) == 0 {
		t.PopularityMarkers = d.PopularityMarkers
	}
	if t.PopularityBoost <= 0 {
		t.PopularityBoost = d.PopularityBoost
	}
	if len(t.CompetitiveMarkers) == 0 {
		t.CompetitiveMarkers = d.CompetitiveMarkers
	}
	if t.LongTailWords <= 0 {
		t.LongTailWords = d.LongTailWords
	}
	if len(t.Intents) == 0 {
		t.Intents = d.Intents
	}
	if t.DefaultIntent == "" {
		t.DefaultIntent = d.DefaultIntent
	}
	if len(t.IgnoreWords) == 0 {
		t.IgnoreWords = d.IgnoreWords
	}
	if t.MaxTopicWords <= 0 {
		t.MaxTopicWords = d.MaxTopicWords
	}
}
