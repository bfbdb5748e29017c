package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	"craftchat/internal/models"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const groqMaxTokens = 1024

type GroqConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// GroqAdapter is the fast provider: a single-turn completion against Groq's
// OpenAI-compatible endpoint.
type GroqAdapter struct {
	apiKey string
	client openai.Client
	model  string
	opts   callOptions
}

func NewGroqAdapter(cfg GroqConfig) *GroqAdapter {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "llama-3.1-8b-instant"
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	return &GroqAdapter{
		apiKey: cfg.APIKey,
		client: openai.NewClient(reqOpts...),
		model:  model,
		opts:   newCallOptions(cfg.Timeout, cfg.RPS, cfg.Burst),
	}
}

func (g *GroqAdapter) ID() models.ProviderID { return models.ProviderFast }

func (g *GroqAdapter) Generate(ctx context.Context, req Request) (Response, error) {
	if g.apiKey == "" {
		return Response{}, &ProviderError{Provider: g.ID(), Code: CodeMissingKey, Message: "groq api key missing"}
	}
	callCtx, cancel, err := g.opts.begin(ctx, g.ID())
	if err != nil {
		return Response{}, err
	}
	defer cancel()

	completion, err := g.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fastSystemPrompt()),
			openai.UserMessage(req.Query),
		},
		MaxTokens: openai.Int(groqMaxTokens),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Response{}, statusError(g.ID(), apiErr.StatusCode, []byte(apiErr.Error()))
		}
		return Response{}, transportError(g.ID(), err)
	}
	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return Response{}, &ProviderError{Provider: g.ID(), Code: CodeMalformedResponse, Message: "groq returned empty choices"}
	}
	return Response{
		Text:      completion.Choices[0].Message.Content,
		Provider:  g.ID(),
		Model:     g.model,
		Citations: []models.Citation{},
		RawMetadata: map[string]any{
			"backend":           "groq",
			"finish_reason":     completion.Choices[0].FinishReason,
			"prompt_tokens":     completion.Usage.PromptTokens,
			"completion_tokens": completion.Usage.CompletionTokens,
		},
	}, nil
}
