package llm

import (
	"fmt"
	"sync"
)

// LLMRegistry defines the registry operations used by the tutor service
// and the daemon handlers
type LLMRegistry interface {
	List() []string
	Default() (Provider, error)
	Get(name string) (Provider, error)
	Len() int
}

var _ LLMRegistry = (*Registry)(nil)

type entry struct {
	name     string
	provider Provider
}

// Registry holds providers in registration order. Re-registering a name
// replaces the provider but keeps its position.
type Registry struct {
	mu        sync.RWMutex
	entries   []entry
	preferred string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds or replaces a provider
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.index(name); i >= 0 {
		r.entries[i].provider = p
		return
	}
	r.entries = append(r.entries, entry{name: name, provider: p})
}

// SetDefault prefers name over registration order. "auto" clears the
// preference.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "auto" || name == "" {
		r.preferred = ""
		return nil
	}
	if r.index(name) < 0 {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	r.preferred = name
	return nil
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.index(name); i >= 0 {
		return r.entries[i].provider, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
}

// Default returns the preferred provider, or the first registered one
func (r *Registry) Default() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.current(); ok {
		return e.provider, nil
	}
	return nil, ErrNoDefaultProvider
}

// DefaultName is the name Default would resolve to, or "" when empty
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, _ := r.current()
	return e.name
}

// List returns provider names in registration order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// Len returns the number of registered providers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) current() (entry, bool) {
	if i := r.index(r.preferred); r.preferred != "" && i >= 0 {
		return r.entries[i], true
	}
	if len(r.entries) == 0 {
		return entry{}, false
	}
	return r.entries[0], true
}

func (r *Registry) index(name string) int {
	for i, e := range r.entries {
		if e.name == name {
			return i
		}
	}
	return -1
}
