package llm

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestRegistry_Empty(t *testing.T) {
	r := NewRegistry()
	if r.Len() != 0 || len(r.List()) != 0 {
		t.Errorf("new registry not empty: %v", r.List())
	}
	if _, err := r.Default(); !errors.Is(err, ErrNoDefaultProvider) {
		t.Errorf("Default() error = %v, want ErrNoDefaultProvider", err)
	}
	if r.DefaultName() != "" {
		t.Errorf("DefaultName() = %q, want empty", r.DefaultName())
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	r.Register("claude", &mockProvider{name: "claude"})

	p, err := r.Get("claude")
	if err != nil || p.Name() != "claude" {
		t.Fatalf("Get(claude) = %v, %v", p, err)
	}
	if _, err := r.Get("gemini"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Get(gemini) error = %v, want ErrProviderNotFound", err)
	}
}

func TestRegistry_Default(t *testing.T) {
	r := NewRegistry()
	r.Register("ollama", &mockProvider{name: "ollama"})
	r.Register("openai", &mockProvider{name: "openai"})

	tests := []struct {
		name      string
		preferred string
		want      string
	}{
		{"no preference picks first registered", "", "ollama"},
		{"auto picks first registered", "auto", "ollama"},
		{"explicit preference", "openai", "openai"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.SetDefault(tt.preferred); err != nil {
				t.Fatalf("SetDefault(%q) error = %v", tt.preferred, err)
			}
			got, err := r.Default()
			if err != nil {
				t.Fatalf("Default() error = %v", err)
			}
			if got.Name() != tt.want || r.DefaultName() != tt.want {
				t.Errorf("Default() = %q, DefaultName() = %q, want %q", got.Name(), r.DefaultName(), tt.want)
			}
		})
	}
}

func TestRegistry_SetDefaultUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register("claude", &mockProvider{name: "claude"})

	if err := r.SetDefault("missing"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("SetDefault(missing) error = %v, want ErrProviderNotFound", err)
	}
	if r.DefaultName() != "claude" {
		t.Errorf("failed SetDefault changed the default to %q", r.DefaultName())
	}
}

func TestRegistry_ReplaceKeepsOrder(t *testing.T) {
	r := NewRegistry()
	r.Register("b", &mockProvider{name: "b"})
	r.Register("a", &mockProvider{name: "a"})
	r.Register("b", &mockProvider{name: "b2"})

	got := r.List()
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("List() = %v, want [b a]", got)
	}
	if p, _ := r.Get("b"); p.Name() != "b2" {
		t.Errorf("Get(b) = %q, want replaced provider", p.Name())
	}

	got[0] = "mutated"
	if r.List()[0] != "b" {
		t.Error("List() must return a copy")
	}
}

func TestRegistry_Concurrency(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			name := fmt.Sprintf("provider-%d", n)
			r.Register(name, &mockProvider{name: name})
		}(i)
		go func() {
			defer wg.Done()
			r.List()
			r.Default()
		}()
	}
	wg.Wait()

	if r.Len() != 10 {
		t.Errorf("Len() = %d, want 10", r.Len())
	}
}
