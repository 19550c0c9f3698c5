package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// New builds the configured provider wrapped as
// caller → retry → logging → provider.
func New(ctx context.Context, cfg Config, log *zap.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	switch cfg.Provider {
	case ProviderMock:
		return NewMockProvider(), nil
	case ProviderAnthropic:
		base = newAnthropic(cfg)
	case ProviderOpenAI, ProviderOpenRouter:
		base = newOpenAI(cfg)
	case ProviderGemini:
		g, err := newGemini(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("initializing gemini provider: %w", err)
		}
		base = g
	}

	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout > 0 {
		base = &timed{inner: base, timeout: cfg.Timeout}
	}
	return WithRetry(WithLogging(base, log), cfg.Retry), nil
}

// timed bounds each provider call.
type timed struct {
	inner   Provider
	timeout time.Duration
}

func (t *timed) ModelID() string { return t.inner.ModelID() }

func (t *timed) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}
