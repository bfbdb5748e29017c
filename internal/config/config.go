package config

import (
	"os"
	"strconv"
	"time"
)

const (
	TurnModeInline   = "inline"
	TurnModeTemporal = "temporal"
)

type Config struct {
	APIAddr           string
	Debug             bool
	PostgresURL       string
	TemporalAddress   string
	TemporalTaskQueue string
	TurnMode          string
	RulesFile         string

	Providers         string
	ProviderTimeout   time.Duration
	ProviderRPS       float64
	ProviderBurst     int
	GroqAPIKey        string
	GroqModel         string
	GroqBaseURL       string
	PerplexityAPIKey  string
	PerplexityModel   string
	PerplexityBaseURL string
	AnthropicAPIKey   string
	AnthropicModel    string
	AnthropicBaseURL  string

	HistoryLimit int
	KeywordLimit int
	AuthorName   string
}

func Load() Config {
	return Config{
		APIAddr:           getenv("CRAFTCHAT_API_ADDR", ":8080"),
		Debug:             getenvBool("CRAFTCHAT_DEBUG", false),
		PostgresURL:       getenv("CRAFTCHAT_POSTGRES_URL", ""),
		TemporalAddress:   getenv("CRAFTCHAT_TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalTaskQueue: getenv("CRAFTCHAT_TEMPORAL_TASK_QUEUE", "craftchat"),
		TurnMode:          getenv("CRAFTCHAT_TURN_MODE", TurnModeInline),
		RulesFile:         getenv("CRAFTCHAT_RULES_FILE", ""),

		Providers:         getenv("CRAFTCHAT_PROVIDERS", "fast:groq|research:perplexity|complex:anthropic"),
		ProviderTimeout:   getenvDuration("CRAFTCHAT_PROVIDER_TIMEOUT", 90*time.Second),
		ProviderRPS:       getenvFloat("CRAFTCHAT_PROVIDER_RPS", 5),
		ProviderBurst:     getenvInt("CRAFTCHAT_PROVIDER_BURST", 10),
		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		GroqModel:         getenv("CRAFTCHAT_GROQ_MODEL", "llama-3.1-8b-instant"),
		GroqBaseURL:       getenv("CRAFTCHAT_GROQ_BASE_URL", "https://api.groq.com/openai/v1/"),
		PerplexityAPIKey:  os.Getenv("PERPLEXITY_API_KEY"),
		PerplexityModel:   getenv("CRAFTCHAT_PERPLEXITY_MODEL", "sonar-pro"),
		PerplexityBaseURL: getenv("CRAFTCHAT_PERPLEXITY_BASE_URL", "https://api.perplexity.ai"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:    getenv("CRAFTCHAT_ANTHROPIC_MODEL", "claude-3-5-sonnet-latest"),
		AnthropicBaseURL:  getenv("CRAFTCHAT_ANTHROPIC_BASE_URL", "https://api.anthropic.com"),

		HistoryLimit: getenvInt("CRAFTCHAT_HISTORY_LIMIT", 20),
		KeywordLimit: getenvInt("CRAFTCHAT_KEYWORD_LIMIT", 10),
		AuthorName:   getenv("CRAFTCHAT_AUTHOR_NAME", "the editorial team"),
	}
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(k string, fallback bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
