package models

import "time"

type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityComplex  Complexity = "complex"
	ComplexityResearch Complexity = "research"
)

// ProviderID names one of the closed set of generation backends.
type ProviderID string

const (
	ProviderFast     ProviderID = "fast"
	ProviderResearch ProviderID = "research"
	ProviderComplex  ProviderID = "complex"
)

func (p ProviderID) Valid() bool {
	switch p {
	case ProviderFast, ProviderResearch, ProviderComplex:
		return true
	}
	return false
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type RoutingDecision struct {
	Complexity                Complexity `json:"complexity"`
	Provider                  ProviderID `json:"provider"`
	RequiresPostProcess       bool       `json:"requires_post_process"`
	RequiresKeywordAnnotation bool       `json:"requires_keyword_annotation"`
	TargetRegion              string     `json:"target_region"`
	MatchedRule               string     `json:"matched_rule,omitempty"`
}

type Citation struct {
	URL          string `json:"url"`
	Title        string `json:"title,omitempty"`
	SourceDomain string `json:"source_domain,omitempty"`
}

const (
	StepCut        = "cut"
	StepReview     = "review"
	StepAdd        = "add"
	StepFactCheck  = "fact-check"
	StepTrustBuild = "trust-build"
)

// PostProcessStep is the audit record for one pipeline stage.
type PostProcessStep struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Applied     bool   `json:"applied"`
}

type KeywordEntry struct {
	Term                string `json:"term"`
	EstimatedVolume     int    `json:"estimated_volume"`
	EstimatedDifficulty string `json:"estimated_difficulty"`
	SearchIntent        string `json:"search_intent"`
}

// Message metadata keys.
const (
	MetaUsedFallback     = "usedFallback"
	MetaOriginalProvider = "originalProvider"
	MetaModel            = "model"
	MetaDecision         = "decision"
	MetaPostProcessError = "postProcessError"
)

type Message struct {
	ID               string            `json:"id"`
	ConversationID   string            `json:"conversation_id"`
	Role             Role              `json:"role"`
	Content          string            `json:"content"`
	Provider         ProviderID        `json:"provider,omitempty"`
	PostProcessSteps []PostProcessStep `json:"post_process_steps"`
	Citations        []Citation        `json:"citations"`
	KeywordEntries   []KeywordEntry    `json:"keyword_entries"`
	Metadata         map[string]any    `json:"metadata,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// Normalize replaces nil collections with empty ones so the JSON shape is
// always an array.
func (m *Message) Normalize() {
	if m.PostProcessSteps == nil {
		m.PostProcessSteps = []PostProcessStep{}
	}
	if m.Citations == nil {
		m.Citations = []Citation{}
	}
	if m.KeywordEntries == nil {
		m.KeywordEntries = []KeywordEntry{}
	}
}

func (m Message) UsedFallback() bool {
	v, ok := m.Metadata[MetaUsedFallback].(bool)
	return ok && v
}

type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
