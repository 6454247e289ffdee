package llm

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"strings"
)

// OllamaProvider talks to a local Ollama server
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// OllamaConfig holds configuration for the Ollama provider
type OllamaConfig struct {
	BaseURL string // default: http://localhost:11434
	Model   string // e.g., "llama3", "codellama", "mistral"
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3"
	}

	return &OllamaProvider{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: newLLMHTTPClient(),
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature      float64  `json:"temperature,omitempty"`
	NumPredict       int      `json:"num_predict,omitempty"`
	Stop             []string `json:"stop,omitempty"`
	PresencePenalty  float64  `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64  `json:"frequency_penalty,omitempty"`
}

type ollamaResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	DoneReason      string        `json:"done_reason"`
	EvalCount       int           `json:"eval_count"`
	PromptEvalCount int           `json:"prompt_eval_count"`
}

// Generate calls the non-streaming /api/chat endpoint
func (p *OllamaProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	var out ollamaResponse
	if err := postJSON(ctx, p.httpClient, p.Name(), p.baseURL+"/api/chat", p.buildRequest(req), &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Message.Content) == "" {
		return nil, fmt.Errorf("ollama: %w", ErrEmptyResponse)
	}

	resp := &Response{
		Content:      out.Message.Content,
		FinishReason: cmp.Or(out.DoneReason, "stop"),
	}
	resp.Usage.InputTokens = out.PromptEvalCount
	resp.Usage.OutputTokens = out.EvalCount
	return resp, nil
}

func (p *OllamaProvider) buildRequest(req *Request) *ollamaRequest {
	out := &ollamaRequest{Model: cmp.Or(req.Model, p.model)}
	if req.System != "" {
		out.Messages = append(out.Messages, ollamaMessage{Role: string(RoleSystem), Content: req.System})
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, ollamaMessage{Role: string(m.Role), Content: m.Content})
	}
	if out.Messages == nil {
		out.Messages = []ollamaMessage{}
	}

	sampled := req.Temperature != 0 || req.MaxTokens != 0 || len(req.StopSeqs) > 0 ||
		req.PresencePenalty != 0 || req.FrequencyPenalty != 0
	if sampled {
		out.Options = &ollamaOptions{
			Temperature:      req.Temperature,
			NumPredict:       req.MaxTokens,
			Stop:             req.StopSeqs,
			PresencePenalty:  req.PresencePenalty,
			FrequencyPenalty: req.FrequencyPenalty,
		}
	}
	return out
}
