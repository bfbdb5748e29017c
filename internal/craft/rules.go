package craft

// Replacement rewrites an impersonal phrasing into second person.
type Replacement struct {
	From string
	To   string
}

// MediaTrigger maps a content signal to a suggested visual.
type MediaTrigger struct {
	Name       string
	Patterns   []string
	Suggestion string
}

// Rules holds every phrase table the stages consult. Patterns are
// case-insensitive regular expressions; phrases are matched on word
// boundaries.
type Rules struct {
	Fillers               []string
	SecondPerson          []Replacement
	MediaTriggers         []MediaTrigger
	ClaimPatterns         []string
	HedgePhrases          []string
	ConversationalMarkers []string
	FramingPhrase         string
	DefaultAuthor         string

	TOCMinChars       int
	TOCMinSubheadings int
	FocusDensity      float64
	LinkMinChars      int
}

func DefaultRules() Rules {
	return Rules{
		// longest first so multi-word phrases win over their parts
		Fillers: []string{
			"it is important to note that",
			"it's important to note that",
			"it is worth noting that",
			"it's worth noting that",
			"it should be noted that",
			"for all intents and purposes",
			"at the end of the day",
			"as a matter of fact",
			"needless to say",
			"to be honest",
			"in today's world",
			"basically",
			"essentially",
			"actually",
			"literally",
			"definitely",
			"extremely",
			"incredibly",
			"totally",
			"really",
			"very",
			"quite",
		},
		SecondPerson: []Replacement{
			{From: "it is recommended to", To: "you should"},
			{From: "it is advisable to", To: "you should"},
			{From: "one should", To: "you should"},
			{From: "one can", To: "you can"},
			{From: "one must", To: "you must"},
			{From: "users can", To: "you can"},
			{From: "users should", To: "you should"},
			{From: "readers should", To: "you should"},
			{From: "readers can", To: "you can"},
			{From: "the reader", To: "you"},
		},
		MediaTriggers: []MediaTrigger{
			{
				Name:       "data",
				Patterns:   []string{`\bstatistics?\b`, `\bdata\b`, `\bpercent(age)?\b`, `\d+(\.\d+)?\s?%`},
				Suggestion: "a chart or infographic visualizing the key figures",
			},
			{
				Name:       "comparison",
				Patterns:   []string{`\bvs\.?\b`, `\bversus\b`, `\bcompar(e|ed|es|ing|ison)\b`},
				Suggestion: "a side-by-side comparison table",
			},
			{
				Name:       "process",
				Patterns:   []string{`\bsteps?\b`, `\bprocess\b`, `\bhow to\b`, `\bworkflow\b`},
				Suggestion: "a step-by-step diagram or numbered screenshots",
			},
			{
				Name:       "example",
				Patterns:   []string{`\bexamples?\b`, `\bcase stud(y|ies)\b`},
				Suggestion: "a case-study callout box with a real example",
			},
		},
		ClaimPatterns: []string{
			`\d+(?:\.\d+)?\s?%`,
			`\b\d+(?:\.\d+)?\s?(?:percent|million|billion|trillion|thousand)\b`,
			`\$\d[\d,]*(?:\.\d+)?`,
			`\b\d{1,3}(?:,\d{3})+\b`,
		},
		HedgePhrases: []string{
			"studies show",
			"research shows",
			"experts say",
			"experts agree",
			"scientists say",
			"according to research",
			"it is proven",
			"proven",
		},
		ConversationalMarkers: []string{`\byou\b`, `\byour\b`, `\byou're\b`, `\byourself\b`, `\blet's\b`},
		FramingPhrase:         "Here's what you need to know:",
		DefaultAuthor:         "the editorial team",

		TOCMinChars:       2000,
		TOCMinSubheadings: 3,
		FocusDensity:      0.005,
		LinkMinChars:      500,
	}
}

func (r *Rules) applyDefaults() {
	d := DefaultRules()
	if len(r.Fillers) == 0 {
		r.Fillers = d.Fillers
	}
	if len(r.SecondPerson) == 0 {
		r.SecondPerson = d.SecondPerson
	}
	if len(r.MediaTriggers) == 0 {
		r.MediaTriggers = d.MediaTriggers
	}
	if len(r.ClaimPatterns) == 0 {
		r.ClaimPatterns = d.ClaimPatterns
	}
	if len(r.HedgePhrases) == 0 {
		r.HedgePhrases = d.HedgePhrases
	}
	if len(r.ConversationalMarkers) == 0 {
		r.ConversationalMarkers = d.ConversationalMarkers
	}
	if r.FramingPhrase == "" {
		r.FramingPhrase = d.FramingPhrase
	}
	if r.DefaultAuthor == "" {
		r.DefaultAuthor = d.DefaultAuthor
	}
	if r.TOCMinChars <= 0 {
		r.TOCMinChars = d.TOCMinChars
	}
	if r.TOCMinSubheadings <= 0 {
		r.TOCMinSubheadings = d.TOCMinSubheadings
	}
	if r.FocusDensity <= 0 {
		r.FocusDensity = d.FocusDensity
	}
	if r.LinkMinChars <= 0 {
		r.LinkMinChars = d.LinkMinChars
	}
}
