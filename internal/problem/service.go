package problem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/parsons/internal/domain"
)

// Metadata for generated problems
const (
	GeneratedTitle       = "Generated Problem"
	GeneratedDescription = "This problem was automatically generated from provided source code."
)

var generatedTags = []string{"python", "generated"}

// Config holds optional collaborators of the Service
type Config struct {
	Generate GenerateOptions
	Logger   *slog.Logger

	// Now and NewID are replaced in tests
	Now   func() time.Time
	NewID func() string
}

// Service manages the problem collection
type Service struct {
	store  Store
	opts   GenerateOptions
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewService creates a new problem service
func NewService(store Store, cfg Config) *Service {
	s := &Service{
		store:  store,
		opts:   cfg.Generate,
		logger: cfg.Logger,
		now:    cfg.Now,
		newID:  cfg.NewID,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// List returns every stored problem
func (s *Service) List(ctx context.Context) ([]*domain.Problem, error) {
	problems, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	if problems == nil {
		problems = []*domain.Problem{}
	}
	return problems, nil
}

// Get returns a problem by id
func (s *Service) Get(ctx context.Context, id string) (*domain.Problem, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrProblemIDRequired
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get problem %s: %w", id, err)
	}
	return p, nil
}

// Generate creates and stores a problem from Python source
func (s *Service) Generate(ctx context.Context, source string) (*domain.Problem, error) {
	if strings.TrimSpace(source) == "" {
		return nil, domain.ErrEmptySourceCode
	}

	p := &domain.Problem{
		ID:              s.newID(),
		Title:           GeneratedTitle,
		Description:     GeneratedDescription,
		Difficulty:      domain.DifficultyMedium,
		Tags:            append([]string(nil), generatedTags...),
		ParsonsSettings: Generate(source, s.opts),
	}
	p.Touch(s.now())

	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save problem: %w", err)
	}
	s.logger.Info("problem generated",
		"problem_id", p.ID,
		"distractors", *p.ParsonsSettings.Options.MaxWrongLines)
	return p, nil
}

// Delete removes a problem by id
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrProblemIDRequired
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete problem %s: %w", id, err)
	}
	s.logger.Info("problem deleted", "problem_id", id)
	return nil
}
