package workflows

import (
	"craftchat/internal/chat"
)

const (
	TurnStatusCompleted = "completed"
	TurnStatusFailed    = "failed"
)

type ChatTurnInput struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	// ProviderTimeoutSeconds bounds a single adapter call.
	ProviderTimeoutSeconds int `json:"provider_timeout_seconds,omitempty"`
}

type ChatTurnOutput struct {
	Status     string          `json:"status"`
	Result     chat.TurnResult `json:"result"`
	FailReason string          `json:"fail_reason,omitempty"`
}

// ChatTurnProgress is served by the GetTurnProgress query.
type ChatTurnProgress struct {
	TurnID       string   `json:"turn_id"`
	Provider     string   `json:"provider"`
	Steps        []string `json:"steps"`
	UsedFallback bool     `json:"used_fallback"`
	Status       string   `json:"status"`
}
