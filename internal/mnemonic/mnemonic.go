// Package mnemonic asks a language model for short memory hooks that tie a
// flag's design to its country.
package mnemonic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/flagz/internal/llm"
)

// Config holds generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the settings used by the study screen.
func DefaultConfig() Config {
	return Config{MaxTokens: 200, Temperature: 0.7}
}

// Input describes the flag a hook is wanted for.
type Input struct {
	Code      string
	Country   string
	Continent string
	Language  string // BCP 47 tag of the learner's UI language
}

// Hook is one generated memory hook.
type Hook struct {
	Code string
	Text string
}

var hookSchema = &llm.Schema{
	Name:        "flag-memory-hook",
	Description: "A one-sentence memory hook for a national flag",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hook": map[string]any{
				"type":        "string",
				"description": "One sentence, at most 25 words, linking the flag's colours or symbols to the country",
				"minLength":   1,
			},
		},
		"required":             []any{"hook"},
		"additionalProperties": false,
	},
}

const systemPrompt = `You help people memorise national flags. Write vivid, accurate memory hooks that connect what the flag looks like to something about the country. Never invent symbols the flag does not have.`

// Service generates hooks in the background. One request is in flight at
// a time; a newer request supersedes the pending result.
type Service struct {
	provider llm.Provider
	cfg      Config
	log      *zap.Logger

	mu      sync.Mutex
	cache   map[string]Hook
	pending *Hook
	ready   bool
	seq     int
}

// NewService creates a hook service. A nil logger disables logging.
func NewService(provider llm.Provider, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{provider: provider, cfg: cfg, log: log, cache: make(map[string]Hook)}
}

// Cached returns a previously generated hook for code.
func (s *Service) Cached(code string) (Hook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.cache[code]
	return h, ok
}

// RequestHook starts generation for in. Cached hooks are made ready
// immediately without calling the provider.
func (s *Service) RequestHook(ctx context.Context, in Input) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.ready = false
	s.pending = nil
	if h, ok := s.cache[in.Code]; ok {
		s.pending = &h
		s.ready = true
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	go func() {
		h, err := s.Generate(ctx, in)
		if err != nil {
			s.log.Warn("memory hook generation failed", zap.String("code", in.Code), zap.Error(err))
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if seq != s.seq {
			return
		}
		s.pending = h
		s.ready = true
	}()
}

// ConsumeHook reports whether the last request has finished and, if so,
// clears the slot. The hook is nil when generation failed.
func (s *Service) ConsumeHook() (*Hook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, false
	}
	h := s.pending
	s.pending = nil
	s.ready = false
	return h, true
}

type hookOutput struct {
	Hook string `json:"hook"`
}

// Generate produces a hook synchronously and caches it.
func (s *Service) Generate(ctx context.Context, in Input) (*Hook, error) {
	ctx = llm.WithPurpose(ctx, "mnemonic")

	req := llm.UserPrompt(systemPrompt, buildPrompt(in))
	req.Schema = hookSchema
	req.MaxTokens = s.cfg.MaxTokens
	req.Temperature = s.cfg.Temperature

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("memory hook generation: %w", err)
	}

	var out hookOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse memory hook: %w", err)
	}

	h := Hook{Code: in.Code, Text: strings.TrimSpace(out.Hook)}
	s.mu.Lock()
	s.cache[in.Code] = h
	s.mu.Unlock()
	return &h, nil
}

func buildPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Country: %s (ISO %s)\n", in.Country, strings.ToUpper(in.Code))
	if in.Continent != "" {
		fmt.Fprintf(&b, "Continent: %s\n", in.Continent)
	}
	lang := in.Language
	if lang == "" {
		lang = "en"
	}
	fmt.Fprintf(&b, "Reply in language: %s\n", lang)
	b.WriteString("\nWrite one memory hook for this country's flag.")
	return b.String()
}
