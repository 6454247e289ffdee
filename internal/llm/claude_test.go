package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClaudeProvider(t *testing.T, handler http.HandlerFunc) *ClaudeProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewClaudeProvider(ClaudeConfig{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClaudeProvider() error = %v", err)
	}
	return p
}

func TestNewClaudeProvider_Defaults(t *testing.T) {
	if _, err := NewClaudeProvider(ClaudeConfig{}); err == nil {
		t.Error("expected error without API key")
	}

	p, err := NewClaudeProvider(ClaudeConfig{APIKey: "k", Model: "claude-sonnet"})
	if err != nil {
		t.Fatalf("NewClaudeProvider() error = %v", err)
	}
	if p.model != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q", p.model)
	}
	if p.Name() != "claude" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestClaudeProvider_BuildParams_SystemExtraction(t *testing.T) {
	p := &ClaudeProvider{model: defaultClaudeModel}
	params := p.buildParams(&Request{
		System: "base",
		Messages: []Message{
			{Role: RoleSystem, Content: "extra"},
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
		},
	})

	if len(params.System) != 1 || params.System[0].Text != "base\n\nextra" {
		t.Errorf("System = %+v", params.System)
	}
	if len(params.Messages) != 2 {
		t.Fatalf("Messages len = %d, want 2", len(params.Messages))
	}
	if params.MaxTokens != 1024 {
		t.Errorf("MaxTokens = %d, want default 1024", params.MaxTokens)
	}
}

func TestClaudeProvider_Generate_HTTPSuccess(t *testing.T) {
	p := newTestClaudeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Path = %v, want /v1/messages", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("X-Api-Key"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":   "msg_test",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": "Which line defines the function?"},
			},
			"model":       defaultClaudeModel,
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 50, "output_tokens": 9},
		})
	})

	resp, err := p.Generate(context.Background(), &Request{
		System:    "You are a tutor.",
		Messages:  []Message{{Role: RoleUser, Content: "help"}},
		MaxTokens: 200,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "Which line defines the function?" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.FinishReason != "end_turn" {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
	if resp.Usage.InputTokens != 50 || resp.Usage.OutputTokens != 9 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
}

func TestClaudeProvider_Generate_HTTPError(t *testing.T) {
	p := newTestClaudeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "overloaded_error", "message": "Overloaded"},
		})
	})

	_, err := p.Generate(context.Background(), &Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", statusErr.StatusCode)
	}
}

func TestClaudeProvider_Generate_EmptyContent(t *testing.T) {
	p := newTestClaudeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id": "msg_test", "type": "message", "role": "assistant",
			"content": []any{}, "model": defaultClaudeModel, "stop_reason": "end_turn",
			"usage": map[string]any{"input_tokens": 1, "output_tokens": 0},
		})
	})

	_, err := p.Generate(context.Background(), &Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("error = %v, want ErrEmptyResponse", err)
	}
}
