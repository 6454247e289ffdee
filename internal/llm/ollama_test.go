package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewOllamaProvider_Defaults(t *testing.T) {
	p := NewOllamaProvider(OllamaConfig{})
	if p.baseURL != "http://localhost:11434" {
		t.Errorf("baseURL = %q", p.baseURL)
	}
	if p.model != "llama3" {
		t.Errorf("model = %q", p.model)
	}
	if p.Name() != "ollama" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestOllamaProvider_BuildRequest(t *testing.T) {
	p := NewOllamaProvider(OllamaConfig{Model: "codellama"})

	tests := []struct {
		name        string
		req         *Request
		wantMsgs    int
		wantOptions bool
	}{
		{"plain", &Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}}, 1, false},
		{"with system", &Request{System: "tutor", Messages: []Message{{Role: RoleUser, Content: "hi"}}}, 2, false},
		{"with sampling", &Request{MaxTokens: 300, Temperature: 0.7, PresencePenalty: 0.1}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.buildRequest(tt.req)
			if got.Model != "codellama" {
				t.Errorf("Model = %q", got.Model)
			}
			if got.Stream {
				t.Error("Stream should be false")
			}
			if len(got.Messages) != tt.wantMsgs {
				t.Errorf("Messages len = %d, want %d", len(got.Messages), tt.wantMsgs)
			}
			if (got.Options != nil) != tt.wantOptions {
				t.Errorf("Options = %+v, want present=%v", got.Options, tt.wantOptions)
			}
		})
	}
}

func TestOllamaProvider_Generate_HTTPSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %v, want POST", r.Method)
		}
		if r.URL.Path != "/api/chat" {
			t.Errorf("Path = %v, want /api/chat", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model":             "llama3",
			"message":           map[string]any{"role": "assistant", "content": "Hello from Ollama!"},
			"done":              true,
			"eval_count":        5,
			"prompt_eval_count": 10,
		})
	}))
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: server.URL + "/"})
	got, err := p.Generate(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Content: "Hello"}},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got.Content != "Hello from Ollama!" {
		t.Errorf("Content = %v, want Hello from Ollama!", got.Content)
	}
	if got.FinishReason != "stop" {
		t.Errorf("FinishReason = %q", got.FinishReason)
	}
	if got.Usage.InputTokens != 10 || got.Usage.OutputTokens != 5 {
		t.Errorf("Usage = %+v", got.Usage)
	}
}

func TestOllamaProvider_Generate_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": "model not loaded"}`))
	}))
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: server.URL})
	_, err := p.Generate(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Content: "Hello"}},
	})
	if err == nil {
		t.Fatal("Generate() expected error for HTTP 503")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should contain status code 503, got: %v", err)
	}
	if extractStatusCode(err) != http.StatusServiceUnavailable {
		t.Errorf("extractStatusCode() = %d", extractStatusCode(err))
	}
}

func TestOllamaProvider_Generate_EmptyMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"message": map[string]any{"role": "assistant", "content": ""}, "done": true})
	}))
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: server.URL})
	_, err := p.Generate(context.Background(), &Request{})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("error = %v, want ErrEmptyResponse", err)
	}
}
