package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDefaultResilientConfig(t *testing.T) {
	cfg := DefaultResilientConfig()

	if !cfg.EnableCircuitBreaker || !cfg.EnableRetry || !cfg.EnableBulkhead || !cfg.EnableRateLimit {
		t.Errorf("all patterns should be enabled by default: %+v", cfg)
	}
	if cfg.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d, want 2", cfg.MaxAttempts)
	}
	if cfg.MaxConcurrent != 5 {
		t.Errorf("MaxConcurrent = %d, want 5", cfg.MaxConcurrent)
	}
	if cfg.RatePerSecond != 2 {
		t.Errorf("RatePerSecond = %d, want 2", cfg.RatePerSecond)
	}
}

func TestNewResilientProvider(t *testing.T) {
	rp := NewResilientProvider(&mockProvider{name: "test"}, DefaultResilientConfig())
	defer rp.Close()

	if rp.Name() != "test" {
		t.Errorf("Name() = %v, want test", rp.Name())
	}
	if rp.circuitBreaker == nil || rp.retrier == nil || rp.bulkhead == nil || rp.rateLimit == nil {
		t.Error("all patterns should be configured")
	}
}

func TestNewResilientProvider_NoPatterns(t *testing.T) {
	rp := NewResilientProvider(&mockProvider{name: "test"}, ResilientConfig{})

	if rp.circuitBreaker != nil || rp.retrier != nil || rp.bulkhead != nil || rp.rateLimit != nil {
		t.Error("no pattern should be configured when all are disabled")
	}
	if err := rp.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestResilientProvider_Generate_Success(t *testing.T) {
	p := &mockProvider{
		name:     "test",
		response: &Response{Content: "Hello from resilient!", FinishReason: "stop"},
	}
	rp := NewResilientProvider(p, ResilientConfig{
		EnableRetry:    true,
		EnableBulkhead: true,
		MaxConcurrent:  2,
		RatePerSecond:  10,
	})

	resp, err := rp.Generate(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "Hello from resilient!" {
		t.Errorf("Content = %v, want Hello from resilient!", resp.Content)
	}
}

func TestResilientProvider_RetriesTransientFailure(t *testing.T) {
	p := &mockProvider{name: "test"}
	p.generateFn = func(ctx context.Context, req *Request) (*Response, error) {
		if p.callCount() == 1 {
			return nil, &StatusError{Provider: "test", StatusCode: 503, Err: errors.New("busy")}
		}
		return &Response{Content: "recovered"}, nil
	}

	rp := NewResilientProvider(p, ResilientConfig{
		EnableRetry: true,
		MaxAttempts: 2,
		RetryDelay:  time.Millisecond,
	})

	resp, err := rp.Generate(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "recovered" {
		t.Errorf("Content = %q", resp.Content)
	}
	if p.callCount() != 2 {
		t.Errorf("calls = %d, want 2", p.callCount())
	}
}

func TestResilientProvider_DoesNotRetryClientError(t *testing.T) {
	p := &mockProvider{
		name: "test",
		err:  &StatusError{Provider: "test", StatusCode: 401, Err: errors.New("bad key")},
	}
	rp := NewResilientProvider(p, ResilientConfig{
		EnableRetry: true,
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	})

	if _, err := rp.Generate(context.Background(), &Request{}); err == nil {
		t.Fatal("Generate() expected error")
	}
	if p.callCount() != 1 {
		t.Errorf("calls = %d, want 1", p.callCount())
	}
}

func TestResilientProvider_CircuitOpens(t *testing.T) {
	p := &mockProvider{
		name: "test",
		err:  &StatusError{Provider: "test", StatusCode: 400, Err: errors.New("bad request")},
	}
	rp := NewResilientProvider(p, ResilientConfig{
		EnableCircuitBreaker: true,
		FailureThreshold:     2,
		OpenTimeout:          time.Minute,
	})

	for i := 0; i < 3; i++ {
		if _, err := rp.Generate(context.Background(), &Request{}); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}
	if p.callCount() != 2 {
		t.Errorf("calls = %d, want 2 (open circuit must short-circuit)", p.callCount())
	}
}

func TestResilientProvider_RateLimitDefaults(t *testing.T) {
	p := &mockProvider{name: "test", response: &Response{Content: "ok"}}
	rp := NewResilientProvider(p, ResilientConfig{EnableRateLimit: true})
	defer rp.Close()

	if rp.rateLimit == nil {
		t.Fatal("rateLimit should be created with defaults")
	}
	resp, err := rp.Generate(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %v, want ok", resp.Content)
	}
}

func TestIsRetryableHTTPError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"typed 429", &StatusError{StatusCode: 429}, true},
		{"typed 503 wrapped", fmt.Errorf("chat: %w", &StatusError{StatusCode: 503}), true},
		{"typed 401", &StatusError{StatusCode: 401}, false},
		{"status 502 in text", fmt.Errorf("gateway: status 502 bad gateway"), true},
		{"status 400 in text", fmt.Errorf("bad request: status 400"), false},
		{"deadline", context.DeadlineExceeded, false},
		{"generic error", fmt.Errorf("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableHTTPError(tt.err); got != tt.want {
				t.Errorf("isRetryableHTTPError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, 0},
		{"typed", &StatusError{StatusCode: 418}, 418},
		{"text 500", fmt.Errorf("error: status 500"), 500},
		{"unknown pattern", fmt.Errorf("HTTP 429"), 0},
		{"no status", fmt.Errorf("connection error"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractStatusCode(tt.err); got != tt.want {
				t.Errorf("extractStatusCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewLLMHTTPClient(t *testing.T) {
	client := newLLMHTTPClient()
	if client.Timeout != requestCeiling {
		t.Errorf("Timeout = %v, want %v", client.Timeout, requestCeiling)
	}
	if client.Transport == nil {
		t.Error("Transport should not be nil")
	}
	if newLLMHTTPClient() != client {
		t.Error("providers should share one client")
	}
}
