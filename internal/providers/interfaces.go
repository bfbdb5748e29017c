package providers

import (
	"context"

	"craftchat/internal/models"
)

// FallbackProvider is re-invoked once when the selected provider fails with a
// fallback-eligible error.
const FallbackProvider = models.ProviderComplex

type Request struct {
	Query    string                 `json:"query"`
	History  []models.Message       `json:"history"`
	Decision models.RoutingDecision `json:"decision"`
}

// Response is the normalized output of every adapter. Text is passed through
// exactly as the backend returned it.
type Response struct {
	Text        string            `json:"text"`
	Provider    models.ProviderID `json:"provider"`
	Model       string            `json:"model"`
	Citations   []models.Citation `json:"citations"`
	RawMetadata map[string]any    `json:"raw_metadata,omitempty"`
}

type Adapter interface {
	ID() models.ProviderID
	Generate(ctx context.Context, req Request) (Response, error)
}
