package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *openaiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return newOpenAI(Config{Provider: ProviderOpenAI, APIKey: "test-key", BaseURL: server.URL + "/v1"})
}

func chatCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func TestOpenAI_HappyPathWithSchema(t *testing.T) {
	var body map[string]any
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"hook":"Rising sun"}`, "stop"))
	})

	req := UserPrompt("You write memory hooks.", "Japan")
	req.Schema = &Schema{
		Name: "openai-hook",
		Definition: map[string]any{
			"type":       "object",
			"properties": map[string]any{"hook": map[string]any{"type": "string"}},
			"required":   []any{"hook"},
		},
	}
	resp, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.Total() != 65 {
		t.Fatalf("expected 65 tokens, got %d", resp.Usage.Total())
	}
	if p.ModelID() != "gpt-4o-mini" {
		t.Fatalf("unexpected default model %q", p.ModelID())
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(msgs))
	}
	if _, ok := body["response_format"]; !ok {
		t.Fatal("expected response_format in request")
	}
}

func TestOpenAI_InvalidAgainstSchema(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"wrong":1}`, "stop"))
	})

	req := UserPrompt("", "Japan")
	req.Schema = &Schema{
		Name: "openai-invalid",
		Definition: map[string]any{
			"type":     "object",
			"required": []any{"hook"},
		},
	}
	_, err := p.Generate(context.Background(), req)
	var inv *InvalidResponseError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidResponseError, got %T: %v", err, err)
	}
}

func TestOpenAI_RateLimit(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited", "type": "rate_limit"},
		})
	})

	_, err := p.Generate(context.Background(), UserPrompt("", "Japan"))
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
}

func TestOpenRouterDefaults(t *testing.T) {
	p := newOpenAI(Config{Provider: ProviderOpenRouter, APIKey: "k"})
	if p.ModelID() != "google/gemini-2.0-flash-exp" {
		t.Fatalf("unexpected model %q", p.ModelID())
	}
}
