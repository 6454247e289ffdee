package daemon

import (
	"context"
	"errors"
	"sync"

	"github.com/felixgeelhaar/parsons/internal/attempt"
	"github.com/felixgeelhaar/parsons/internal/domain"
	"github.com/felixgeelhaar/parsons/internal/llm"
	"github.com/felixgeelhaar/parsons/internal/pairing"
	"github.com/felixgeelhaar/parsons/internal/validation"
)

// mockProblemService is an in-memory problem collection
type mockProblemService struct {
	mu       sync.Mutex
	problems map[string]*domain.Problem
	order    []string

	listErr error
	genFn   func(source string) (*domain.Problem, error)
}

func newMockProblemService(ps ...*domain.Problem) *mockProblemService {
	m := &mockProblemService{problems: map[string]*domain.Problem{}}
	for _, p := range ps {
		m.problems[p.ID] = p
		m.order = append(m.order, p.ID)
	}
	return m
}

func (m *mockProblemService) List(ctx context.Context) ([]*domain.Problem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []*domain.Problem{}
	for _, id := range m.order {
		if p, ok := m.problems[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProblemService) Get(ctx context.Context, id string) (*domain.Problem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.problems[id]
	if !ok {
		return nil, domain.ErrProblemNotFound
	}
	return p, nil
}

func (m *mockProblemService) Generate(ctx context.Context, source string) (*domain.Problem, error) {
	if m.genFn != nil {
		return m.genFn(source)
	}
	return nil, errors.New("generate not configured")
}

func (m *mockProblemService) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		return domain.ErrProblemIDRequired
	}
	if _, ok := m.problems[id]; !ok {
		return domain.ErrProblemNotFound
	}
	delete(m.problems, id)
	return nil
}

// mockTutor lets tests override individual tutor operations
type mockTutor struct {
	validateFn    func(p *domain.Problem, submitted []string, sc *validation.SolutionContext) (*validation.Verdict, error)
	feedbackFn    func(ctx context.Context, p *domain.Problem, submitted []string) (*pairing.FeedbackResult, error)
	chatFn        func(ctx context.Context, req pairing.ChatRequest) (*pairing.ChatResult, error)
	hasProviderFn func() bool
}

var _ pairing.TutorService = (*mockTutor)(nil)

func (m *mockTutor) Validate(p *domain.Problem, submitted []string, sc *validation.SolutionContext) (*validation.Verdict, error) {
	if m.validateFn != nil {
		return m.validateFn(p, submitted, sc)
	}
	return &validation.Verdict{IsCorrect: true, Details: validation.DetailsCorrect}, nil
}

func (m *mockTutor) Feedback(ctx context.Context, p *domain.Problem, submitted []string) (*pairing.FeedbackResult, error) {
	if m.feedbackFn != nil {
		return m.feedbackFn(ctx, p, submitted)
	}
	return &pairing.FeedbackResult{Feedback: "ok", Source: pairing.SourceFallback}, nil
}

func (m *mockTutor) Chat(ctx context.Context, req pairing.ChatRequest) (*pairing.ChatResult, error) {
	if m.chatFn != nil {
		return m.chatFn(ctx, req)
	}
	return &pairing.ChatResult{Reply: domain.NewTurn("", domain.RoleTutor, "hi", 0)}, nil
}

func (m *mockTutor) HasProvider() bool {
	if m.hasProviderFn != nil {
		return m.hasProviderFn()
	}
	return false
}

type mockStats struct {
	statsFn func(problemID string) (*attempt.Stats, error)
}

func (m *mockStats) Stats(ctx context.Context, problemID string) (*attempt.Stats, error) {
	return m.statsFn(problemID)
}

// failingProvider is a remote provider whose every call fails
type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }

func (failingProvider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	return nil, errors.New("upstream unavailable")
}
