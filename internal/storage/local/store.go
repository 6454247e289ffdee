// Package local stores problems in a single JSON file.
package local

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/parsons/internal/domain"
	"github.com/felixgeelhaar/parsons/internal/problem"
)

//go:embed seed.json
var defaultSeed []byte

// ProblemStore keeps the whole problem collection in one JSON file.
// The file is read on first use and rewritten atomically on every change.
type ProblemStore struct {
	path     string
	seedPath string

	mu       sync.RWMutex
	loaded   bool
	problems []*domain.Problem
}

// NewProblemStore creates a store backed by path. When path does not exist
// it is seeded from seedPath, or from the built-in sample problems when
// seedPath is empty.
func NewProblemStore(path, seedPath string) (*ProblemStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &ProblemStore{path: path, seedPath: seedPath}, nil
}

// Path returns the backing file
func (s *ProblemStore) Path() string {
	return s.path
}

// List returns all problems in insertion order
func (s *ProblemStore) List(ctx context.Context) ([]*domain.Problem, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Problem, len(s.problems))
	for i, p := range s.problems {
		out[i] = p.Clone()
	}
	return out, nil
}

// Get returns a problem by id
func (s *ProblemStore) Get(ctx context.Context, id string) (*domain.Problem, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.problems[i].Clone(), nil
	}
	return nil, domain.ErrProblemNotFound
}

// Save appends a new problem or replaces one with the same id
func (s *ProblemStore) Save(ctx context.Context, p *domain.Problem) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := append([]*domain.Problem(nil), s.problems...)
	if i := s.indexOf(p.ID); i >= 0 {
		next[i] = p.Clone()
	} else {
		next = append(next, p.Clone())
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.problems = next
	return nil
}

// Delete removes a problem by id
func (s *ProblemStore) Delete(ctx context.Context, id string) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.ErrProblemNotFound
	}
	next := append(append([]*domain.Problem(nil), s.problems[:i]...), s.problems[i+1:]...)
	if err := s.write(next); err != nil {
		return err
	}
	s.problems = next
	return nil
}

func (s *ProblemStore) indexOf(id string) int {
	for i, p := range s.problems {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *ProblemStore) ensureLoaded() error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		problems, err := s.readSeed()
		if err != nil {
			return err
		}
		if err := s.write(problems); err != nil {
			return err
		}
		s.problems = problems
	case err != nil:
		return fmt.Errorf("read problems: %w", err)
	default:
		if err := json.Unmarshal(data, &s.problems); err != nil {
			return fmt.Errorf("decode %s: %w", s.path, err)
		}
	}
	s.loaded = true
	return nil
}

func (s *ProblemStore) readSeed() ([]*domain.Problem, error) {
	data := defaultSeed
	if s.seedPath != "" {
		var err error
		if data, err = os.ReadFile(s.seedPath); err != nil {
			return nil, fmt.Errorf("read seed: %w", err)
		}
	}
	problems := []*domain.Problem{}
	if err := json.Unmarshal(data, &problems); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return problems, nil
}

// write replaces the backing file through a temp file and rename
func (s *ProblemStore) write(problems []*domain.Problem) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".problems-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if problems == nil {
		problems = []*domain.Problem{}
	}
	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(problems); err != nil {
		tmp.Close()
		return fmt.Errorf("encode json: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

var _ problem.Store = (*ProblemStore)(nil)
