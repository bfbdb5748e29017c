package providers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"craftchat/internal/models"

	"github.com/tidwall/gjson"
)

const (
	perplexityMaxTokens    = 8000
	perplexityHistoryTurns = 6
)

type PerplexityConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// PerplexityAdapter is the research provider. Its responses carry retrieved
// citations, which are normalized into models.Citation.
type PerplexityAdapter struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	opts    callOptions
}

func NewPerplexityAdapter(cfg PerplexityConfig) *PerplexityAdapter {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "sonar-pro"
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = "https://api.perplexity.ai"
	}
	return &PerplexityAdapter{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{},
		opts:    newCallOptions(cfg.Timeout, cfg.RPS, cfg.Burst),
	}
}

func (p *PerplexityAdapter) ID() models.ProviderID { return models.ProviderResearch }

func (p *PerplexityAdapter) Generate(ctx context.Context, req Request) (Response, error) {
	if p.apiKey == "" {
		return Response{}, &ProviderError{Provider: p.ID(), Code: CodeMissingKey, Message: "perplexity api key missing"}
	}
	callCtx, cancel, err := p.opts.begin(ctx, p.ID())
	if err != nil {
		return Response{}, err
	}
	defer cancel()

	messages := []map[string]string{{"role": "system", "content": researchSystemPrompt(req.Decision.TargetRegion)}}
	for _, m := range alternating(recentHistory(req.History, perplexityHistoryTurns)) {
		messages = append(messages, map[string]string{"role": string(m.Role), "content": m.Content})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Query})

	body, err := postJSON(callCtx, p.client, p.ID(), p.baseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + p.apiKey,
	}, map[string]any{
		"model":      p.model,
		"messages":   messages,
		"max_tokens": perplexityMaxTokens,
	})
	if err != nil {
		return Response{}, err
	}
	return p.parse(body)
}

func (p *PerplexityAdapter) parse(body []byte) (Response, error) {
	if !gjson.ValidBytes(body) {
		return Response{}, &ProviderError{Provider: p.ID(), Code: CodeMalformedResponse, Message: "perplexity returned invalid json"}
	}
	doc := gjson.ParseBytes(body)
	text := doc.Get("choices.0.message.content").String()
	if strings.TrimSpace(text) == "" {
		return Response{}, &ProviderError{Provider: p.ID(), Code: CodeMalformedResponse, Message: "perplexity returned empty choices"}
	}
	return Response{
		Text:      text,
		Provider:  p.ID(),
		Model:     p.model,
		Citations: extractCitations(doc),
		RawMetadata: map[string]any{
			"backend":           "perplexity",
			"prompt_tokens":     doc.Get("usage.prompt_tokens").Int(),
			"completion_tokens": doc.Get("usage.completion_tokens").Int(),
		},
	}, nil
}

// extractCitations accepts both the structured search_results array and the
// older flat citations list of URLs, de-duplicating by URL.
func extractCitations(doc gjson.Result) []models.Citation {
	out := make([]models.Citation, 0)
	seen := map[string]struct{}{}
	add := func(rawURL, title string) {
		rawURL = strings.TrimSpace(rawURL)
		if rawURL == "" {
			return
		}
		if _, ok := seen[rawURL]; ok {
			return
		}
		seen[rawURL] = struct{}{}
		domain := sourceDomain(rawURL)
		if title == "" {
			title = domain
		}
		out = append(out, models.Citation{URL: rawURL, Title: title, SourceDomain: domain})
	}
	doc.Get("search_results").ForEach(func(_, v gjson.Result) bool {
		add(v.Get("url").String(), v.Get("title").String())
		return true
	})
	doc.Get("citations").ForEach(func(_, v gjson.Result) bool {
		if v.IsObject() {
			add(v.Get("url").String(), v.Get("title").String())
		} else {
			add(v.String(), "")
		}
		return true
	})
	return out
}

func sourceDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// alternating merges consecutive messages from the same role and drops a
// leading assistant message, which chat APIs with strict turn order reject.
func alternating(history []models.Message) []models.Message {
	out := make([]models.Message, 0, len(history))
	for _, m := range history {
		if len(out) == 0 && m.Role != models.RoleUser {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Role == m.Role {
			out[len(out)-1].Content += "\n\n" + m.Content
			continue
		}
		out = append(out, models.Message{Role: m.Role, Content: m.Content})
	}
	// the current query is appended as a user turn by the caller
	if len(out) > 0 && out[len(out)-1].Role == models.RoleUser {
		out = out[:len(out)-1]
	}
	return out
}
