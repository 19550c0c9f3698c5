package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type logged struct {
	inner Provider
	log   *zap.Logger
}

// WithLogging logs every request's purpose, latency, token usage and
// outcome.
func WithLogging(p Provider, log *zap.Logger) Provider {
	return &logged{inner: p, log: log}
}

func (l *logged) ModelID() string { return l.inner.ModelID() }

func (l *logged) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	fields := []zap.Field{
		zap.String("purpose", PurposeFrom(ctx)),
		zap.String("model", l.inner.ModelID()),
		zap.Duration("latency", time.Since(start)),
	}
	if resp != nil {
		fields = append(fields,
			zap.Int("input_tokens", resp.Usage.InputTokens),
			zap.Int("output_tokens", resp.Usage.OutputTokens))
	}
	if err != nil {
		l.log.Warn("llm request failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	l.log.Debug("llm request", fields...)
	return resp, nil
}
