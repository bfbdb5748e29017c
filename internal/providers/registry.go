package providers

import (
	"fmt"

	"craftchat/internal/config"
	"craftchat/internal/logging"
	"craftchat/internal/models"

	"go.uber.org/zap"
)

var allSlots = []models.ProviderID{models.ProviderFast, models.ProviderResearch, models.ProviderComplex}

// Registry is the lookup table from routing decision to adapter.
type Registry struct {
	adapters map[models.ProviderID]Adapter
}

// NewRegistry requires exactly one adapter per provider slot.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[models.ProviderID]Adapter, len(adapters))}
	for _, a := range adapters {
		if !a.ID().Valid() {
			return nil, fmt.Errorf("adapter has unknown provider id %q", a.ID())
		}
		if _, dup := r.adapters[a.ID()]; dup {
			return nil, fmt.Errorf("duplicate adapter for provider %s", a.ID())
		}
		r.adapters[a.ID()] = a
	}
	for _, id := range allSlots {
		if _, ok := r.adapters[id]; !ok {
			return nil, fmt.Errorf("no adapter configured for provider %s", id)
		}
	}
	return r, nil
}

func (r *Registry) Get(id models.ProviderID) (Adapter, error) {
	a, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("no adapter configured for provider %s", id)
	}
	return a, nil
}

// BuildRegistry wires adapters from configuration. A slot whose backend has no
// API key, or that is not listed, is served by MockAdapter.
func BuildRegistry(cfg config.Config, logger *zap.Logger) (*Registry, error) {
	logger = logging.OrNop(logger)
	bySlot := map[models.ProviderID]string{}
	for _, ref := range ParseProviderList(cfg.Providers) {
		id := models.ProviderID(ref.Slot)
		if !id.Valid() {
			return nil, fmt.Errorf("unknown provider slot %q in %q", ref.Slot, ref.Raw)
		}
		bySlot[id] = ref.Backend
	}
	adapters := make([]Adapter, 0, len(allSlots))
	for _, id := range allSlots {
		backend := bySlot[id]
		a, err := buildAdapter(id, backend, cfg)
		if err != nil {
			return nil, err
		}
		if _, isMock := a.(*MockAdapter); isMock && backend != "mock" {
			logger.Warn("provider backend unavailable, using mock", zap.String("provider", string(id)), zap.String("backend", backend))
		}
		adapters = append(adapters, a)
	}
	return NewRegistry(adapters...)
}

func buildAdapter(id models.ProviderID, backend string, cfg config.Config) (Adapter, error) {
	switch backend {
	case "", "mock":
		return NewMockAdapter(id), nil
	case "groq":
		if id != models.ProviderFast {
			return nil, fmt.Errorf("backend groq can only serve the fast slot")
		}
		if cfg.GroqAPIKey == "" {
			return NewMockAdapter(id), nil
		}
		return NewGroqAdapter(GroqConfig{
			APIKey: cfg.GroqAPIKey, Model: cfg.GroqModel, BaseURL: cfg.GroqBaseURL,
			Timeout: cfg.ProviderTimeout, RPS: cfg.ProviderRPS, Burst: cfg.ProviderBurst,
		}), nil
	case "perplexity":
		if id != models.ProviderResearch {
			return nil, fmt.Errorf("backend perplexity can only serve the research slot")
		}
		if cfg.PerplexityAPIKey == "" {
			return NewMockAdapter(id), nil
		}
		return NewPerplexityAdapter(PerplexityConfig{
			APIKey: cfg.PerplexityAPIKey, Model: cfg.PerplexityModel, BaseURL: cfg.PerplexityBaseURL,
			Timeout: cfg.ProviderTimeout, RPS: cfg.ProviderRPS, Burst: cfg.ProviderBurst,
		}), nil
	case "anthropic":
		if id != models.ProviderComplex {
			return nil, fmt.Errorf("backend anthropic can only serve the complex slot")
		}
		if cfg.AnthropicAPIKey == "" {
			return NewMockAdapter(id), nil
		}
		return NewAnthropicAdapter(AnthropicConfig{
			APIKey: cfg.AnthropicAPIKey, Model: cfg.AnthropicModel, BaseURL: cfg.AnthropicBaseURL,
			Timeout: cfg.ProviderTimeout, RPS: cfg.ProviderRPS, Burst: cfg.ProviderBurst,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported provider backend: %s", backend)
	}
}
