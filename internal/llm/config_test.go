package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func clearKeys(t *testing.T) {
	for _, k := range keyEnv {
		t.Setenv(k.env, "")
	}
}

func TestDiscover_FromEnvironment(t *testing.T) {
	clearKeys(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, ok := Discover(Config{})
	require.True(t, ok)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "sk-ant", cfg.APIKey)
}

func TestDiscover_PrefersOrder(t *testing.T) {
	clearKeys(t)
	t.Setenv("OPENAI_API_KEY", "sk-oa")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, ok := Discover(Config{})
	require.True(t, ok)
	assert.Equal(t, ProviderGemini, cfg.Provider)
}

func TestDiscover_ExplicitProviderFillsKey(t *testing.T) {
	clearKeys(t)
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	cfg, ok := Discover(Config{Provider: ProviderOpenRouter})
	require.True(t, ok)
	assert.Equal(t, "or-key", cfg.APIKey)
}

func TestDiscover_None(t *testing.T) {
	clearKeys(t)
	_, ok := Discover(Config{})
	assert.False(t, ok)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Provider: ProviderMock}.Validate())
	assert.NoError(t, Config{Provider: ProviderOpenAI, APIKey: "k"}.Validate())
	assert.Error(t, Config{Provider: ProviderOpenAI}.Validate())
	assert.Error(t, Config{Provider: "bard", APIKey: "k"}.Validate())
}

func TestResolveModel(t *testing.T) {
	assert.Equal(t, "claude-haiku-4-5-20251001", Config{Provider: ProviderAnthropic}.resolveModel())
	assert.Equal(t, "gemini-2.0-pro", Config{Provider: ProviderGemini, Model: "gemini-pro"}.resolveModel())
	assert.Equal(t, "gpt-4.1", Config{Provider: ProviderOpenAI, Model: "gpt-4.1"}.resolveModel())
}

func TestNew_Mock(t *testing.T) {
	p, err := New(context.Background(), Config{Provider: ProviderMock}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
}

func TestNew_WrapsProvider(t *testing.T) {
	p, err := New(context.Background(), Config{Provider: ProviderOpenAI, APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", p.ModelID())
	_, isRetry := p.(*retrying)
	assert.True(t, isRetry)
}

func TestPurpose(t *testing.T) {
	assert.Equal(t, "unknown", PurposeFrom(context.Background()))
	assert.Equal(t, "mnemonic", PurposeFrom(WithPurpose(context.Background(), "mnemonic")))
}
