package activities

import (
	"craftchat/internal/chat"
	"craftchat/internal/craft"
	"craftchat/internal/models"
	"craftchat/internal/providers"
)

// Application error types carried across the workflow boundary.
const (
	ErrTypeProvider     = "ProviderError"
	ErrTypeEmptyQuery   = "EmptyQuery"
	ErrTypeQueryTooLong = "QueryTooLong"
	ErrTypeNotFound     = "NotFound"
)

type BeginTurnInput struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

type BeginTurnOutput struct {
	Turn chat.Turn `json:"turn"`
}

type GenerateInput struct {
	Turn     chat.Turn         `json:"turn"`
	Provider models.ProviderID `json:"provider"`
}

type GenerateOutput struct {
	Response providers.Response `json:"response"`
}

type AnnotateInput struct {
	Turn chat.Turn `json:"turn"`
}

type AnnotateOutput struct {
	Topic   string                `json:"topic"`
	Entries []models.KeywordEntry `json:"entries"`
	Error   string                `json:"error,omitempty"`
}

type PostProcessInput struct {
	Turn  chat.Turn `json:"turn"`
	Text  string    `json:"text"`
	Focus string    `json:"focus"`
}

// PostProcessOutput always carries usable text; Error is set when the
// pipeline failed and Result holds the provider text unchanged.
type PostProcessOutput struct {
	Result craft.Result `json:"result"`
	Error  string       `json:"error,omitempty"`
}

type PersistAssistantInput struct {
	Turn             chat.Turn             `json:"turn"`
	Generation       chat.Generation       `json:"generation"`
	Processed        craft.Result          `json:"processed"`
	PostProcessError string                `json:"post_process_error,omitempty"`
	Entries          []models.KeywordEntry `json:"entries"`
}

type PersistAssistantOutput struct {
	Message models.Message `json:"message"`
}

type ConsumeCreditInput struct {
	Turn chat.Turn `json:"turn"`
}

type ConsumeCreditOutput struct {
	Consumed bool `json:"consumed"`
}

type LogProviderCallInput struct {
	ConversationID string                   `json:"conversation_id"`
	TurnID         string                   `json:"turn_id"`
	Query          string                   `json:"query"`
	Provider       models.ProviderID        `json:"provider"`
	Model          string                   `json:"model"`
	UsedFallback   bool                     `json:"used_fallback"`
	LatencyMS      int64                    `json:"latency_ms"`
	Failure        *providers.ProviderError `json:"failure,omitempty"`
	FailureMessage string                   `json:"failure_message,omitempty"`
}
