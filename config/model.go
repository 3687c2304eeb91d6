package config

import "time"

// ModelConfig selects the completion provider. The provider identity and
// endpoint are configuration, not part of the core contract: any
// OpenAI-compatible endpoint works through OpenAIBaseURL.
type ModelConfig struct {
	Provider        string        `json:"provider"` // "openai" or "anthropic"
	OpenAIAPIKey    string        `json:"-"`
	OpenAIBaseURL   string        `json:"openaiBaseUrl"`
	AnthropicAPIKey string        `json:"-"`
	ModelName       string        `json:"model"`
	EmbeddingModel  string        `json:"embeddingModel"`
	MaxTokens       int           `json:"maxTokens"`
	Temperature     float64       `json:"temperature"`
	RequestTimeout  time.Duration `json:"requestTimeout"`
	TraceVerbose    bool          `json:"traceVerbose"`
}

func NewModelConfig() *ModelConfig {
	return &ModelConfig{
		Provider:        getEnv("COUNSEL_PROVIDER", "openai"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		ModelName:       getEnv("COUNSEL_MODEL", "gpt-4o-mini"),
		EmbeddingModel:  getEnv("COUNSEL_EMBEDDING_MODEL", "text-embedding-3-small"),
		MaxTokens:       4096,
		Temperature:     0.1,
		RequestTimeout:  getEnvDuration("COUNSEL_PROVIDER_TIMEOUT", 8*time.Second),
		TraceVerbose:    getEnvBool("COUNSEL_TRACE_VERBOSE", false),
	}
}
