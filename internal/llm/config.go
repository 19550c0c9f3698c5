package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects one provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string // friendly alias or provider model ID
	BaseURL  string // OpenAI-compatible endpoints only
	Timeout  time.Duration
	Retry    RetryConfig
}

// RetryConfig controls backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetry is used when Config.Retry is zero.
var DefaultRetry = RetryConfig{
	MaxAttempts: 3,
	InitialWait: time.Second,
	MaxWait:     10 * time.Second,
	Multiplier:  2.0,
}

// defaultModels is the model used per provider when none is configured.
var defaultModels = map[string]string{
	ProviderAnthropic:  "claude-haiku",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderGemini:     "gemini-flash",
	ProviderOpenRouter: "google/gemini-2.0-flash-exp",
}

// modelAliases maps friendly names to provider model IDs.
var modelAliases = map[string]string{
	"claude-haiku":  "claude-haiku-4-5-20251001",
	"claude-sonnet": "claude-sonnet-4-20250514",
	"gemini-flash":  "gemini-2.0-flash",
	"gemini-pro":    "gemini-2.0-pro",
}

// resolveModel returns the provider model ID for cfg.
func (c Config) resolveModel() string {
	name := c.Model
	if name == "" {
		name = defaultModels[c.Provider]
	}
	if id, ok := modelAliases[name]; ok {
		return id
	}
	return name
}

// keyEnv lists the conventional API key variables, in discovery order.
var keyEnv = []struct {
	provider string
	env      string
}{
	{ProviderGemini, "GEMINI_API_KEY"},
	{ProviderOpenAI, "OPENAI_API_KEY"},
	{ProviderAnthropic, "ANTHROPIC_API_KEY"},
	{ProviderOpenRouter, "OPENROUTER_API_KEY"},
}

// Discover fills in a provider and key from the conventional environment
// variables when cfg has none. It reports whether a provider is set.
func Discover(cfg Config) (Config, bool) {
	if cfg.Provider != "" {
		if cfg.APIKey == "" {
			for _, k := range keyEnv {
				if k.provider == cfg.Provider {
					cfg.APIKey = os.Getenv(k.env)
				}
			}
		}
		return cfg, true
	}
	for _, k := range keyEnv {
		if v := os.Getenv(k.env); v != "" {
			cfg.Provider = k.provider
			cfg.APIKey = v
			return cfg, true
		}
	}
	return cfg, false
}

// Validate checks that the provider is known and has a key.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOpenRouter:
		if c.APIKey == "" {
			return fmt.Errorf("an API key is required for the %s provider (FLAGZ_LLM_API_KEY)", c.Provider)
		}
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
}
