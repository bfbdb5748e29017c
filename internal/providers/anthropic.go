package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"craftchat/internal/models"
)

const (
	anthropicMaxTokens    = 8192
	anthropicHistoryTurns = 20
	anthropicVersion      = "2023-06-01"
)

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// AnthropicAdapter is the complex provider and the designated fallback. It
// carries the longest history and output budget.
type AnthropicAdapter struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	opts    callOptions
}

func NewAnthropicAdapter(cfg AnthropicConfig) *AnthropicAdapter {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "claude-3-5-sonnet-latest"
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = "https://api.anthropic.com"
	}
	return &AnthropicAdapter{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{},
		opts:    newCallOptions(cfg.Timeout, cfg.RPS, cfg.Burst),
	}
}

func (a *AnthropicAdapter) ID() models.ProviderID { return models.ProviderComplex }

func (a *AnthropicAdapter) Generate(ctx context.Context, req Request) (Response, error) {
	if a.apiKey == "" {
		return Response{}, &ProviderError{Provider: a.ID(), Code: CodeMissingKey, Message: "anthropic api key missing"}
	}
	callCtx, cancel, err := a.opts.begin(ctx, a.ID())
	if err != nil {
		return Response{}, err
	}
	defer cancel()

	messages := make([]map[string]string, 0, anthropicHistoryTurns+1)
	for _, m := range alternating(recentHistory(req.History, anthropicHistoryTurns)) {
		messages = append(messages, map[string]string{"role": string(m.Role), "content": m.Content})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Query})

	body, err := postJSON(callCtx, a.client, a.ID(), a.baseURL+"/v1/messages", map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}, map[string]any{
		"model":      a.model,
		"max_tokens": anthropicMaxTokens,
		"system":     complexSystemPrompt(req.Decision),
		"messages":   messages,
	})
	if err != nil {
		return Response{}, err
	}

	var parsed struct {
		Model   string `json:"model"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
		Usage      struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Response{}, &ProviderError{Provider: a.ID(), Code: CodeMalformedResponse, Message: "decode anthropic response: " + err.Error()}
	}
	parts := make([]string, 0, len(parsed.Content))
	for _, c := range parsed.Content {
		if c.Type == "text" {
			parts = append(parts, c.Text)
		}
	}
	text := strings.Join(parts, "")
	if strings.TrimSpace(text) == "" {
		return Response{}, &ProviderError{Provider: a.ID(), Code: CodeMalformedResponse, Message: "anthropic returned no text content"}
	}
	model := parsed.Model
	if model == "" {
		model = a.model
	}
	return Response{
		Text:      text,
		Provider:  a.ID(),
		Model:     model,
		Citations: []models.Citation{},
		RawMetadata: map[string]any{
			"backend":       "anthropic",
			"stop_reason":   parsed.StopReason,
			"input_tokens":  parsed.Usage.InputTokens,
			"output_tokens": parsed.Usage.OutputTokens,
		},
	}, nil
}
