package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"

	"github.com/felixgeelhaar/parsons/internal/attempt"
	"github.com/felixgeelhaar/parsons/internal/domain"
	"github.com/felixgeelhaar/parsons/internal/pairing"
	"github.com/felixgeelhaar/parsons/internal/validation"
)

// Problems is the subset of the problem service exposed as tools
type Problems interface {
	List(ctx context.Context) ([]*domain.Problem, error)
	Get(ctx context.Context, id string) (*domain.Problem, error)
	Generate(ctx context.Context, source string) (*domain.Problem, error)
}

// StatsReader reports attempt statistics for a problem
type StatsReader interface {
	Stats(ctx context.Context, problemID string) (*attempt.Stats, error)
}

// Server wraps the MCP server with Parsons tutoring tools
type Server struct {
	mcpServer *server.Server
	problems  Problems
	tutor     pairing.TutorService
	stats     StatsReader
}

// Config contains configuration for the MCP server
type Config struct {
	Problems Problems
	Tutor    pairing.TutorService

	// Stats is optional; without it parsons_stats reports an error
	Stats StatsReader

	Version string
}

// NewServer creates a new MCP server
func NewServer(cfg Config) *Server {
	s := &Server{
		problems: cfg.Problems,
		tutor:    cfg.Tutor,
		stats:    cfg.Stats,
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s.mcpServer = server.New(server.Info{
		Name:    "parsons",
		Version: version,
	}, server.WithInstructions(`
Parsons is a tutor for Parsons problems: the learner reorders and indents
shuffled lines of code into a working program.

Available tools:
- parsons_list_problems: List available problems
- parsons_get_problem: Get a problem with its widget settings
- parsons_generate: Create a problem from Python source
- parsons_validate: Check an arrangement against the solution
- parsons_feedback: Get one-shot Socratic feedback on an arrangement
- parsons_chat: Continue a tutoring conversation
- parsons_stats: Attempt statistics for a problem

The tutor never reveals the solution. It asks guiding questions instead.
`))

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("parsons_list_problems").
		Description("List available Parsons problems").
		Handler(s.handleList)

	s.mcpServer.Tool("parsons_get_problem").
		Description("Get a Parsons problem including its scrambled lines").
		Handler(s.handleGet)

	s.mcpServer.Tool("parsons_generate").
		Description("Generate a Parsons problem from Python source code").
		Handler(s.handleGenerate)

	s.mcpServer.Tool("parsons_validate").
		Description("Validate an arrangement of lines against the expected solution").
		Handler(s.handleValidate)

	s.mcpServer.Tool("parsons_feedback").
		Description("Get Socratic feedback on an arrangement without revealing the answer").
		Handler(s.handleFeedback)

	s.mcpServer.Tool("parsons_chat").
		Description("Send a message to the tutor about the current problem").
		Handler(s.handleChat)

	s.mcpServer.Tool("parsons_stats").
		Description("Get attempt statistics for a problem").
		Handler(s.handleStats)
}

// Input/Output types for tools

type ListInput struct{}

type ProblemSummary struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
}

type ListOutput struct {
	Problems []ProblemSummary `json:"problems"`
	Count    int              `json:"count"`
}

type ProblemInput struct {
	ProblemID string `json:"problem_id" jsonschema:"description=Problem ID from parsons_list_problems"`
}

type ProblemOutput struct {
	Problem *domain.Problem `json:"problem"`
	Lines   []string        `json:"lines"`
}

type GenerateInput struct {
	SourceCode string `json:"source_code" jsonschema:"description=Python source the problem is built from"`
}

type SolutionInput struct {
	ProblemID string   `json:"problem_id" jsonschema:"description=Problem ID"`
	Solution  []string `json:"solution" jsonschema:"description=Submitted lines in order with leading spaces for indentation"`
}

type ValidateOutput struct {
	IsCorrect bool     `json:"is_correct"`
	Details   string   `json:"details"`
	Placed    int      `json:"placed"`
	Expected  int      `json:"expected"`
	Issues    []string `json:"issues,omitempty"`
}

type FeedbackOutput struct {
	Feedback string `json:"feedback"`
	Source   string `json:"source"`
}

type ChatTurn struct {
	Role    string `json:"role" jsonschema:"description=student or tutor"`
	Content string `json:"content"`
}

type ChatInput struct {
	ProblemID string     `json:"problem_id" jsonschema:"description=Problem ID"`
	Message   string     `json:"message" jsonschema:"description=The learner's message"`
	Solution  []string   `json:"solution,omitempty" jsonschema:"description=Current arrangement of lines"`
	History   []ChatTurn `json:"history,omitempty" jsonschema:"description=Earlier turns, oldest first"`
}

type ChatOutput struct {
	Reply     string `json:"reply"`
	Source    string `json:"source"`
	Strategy  string `json:"strategy"`
	Stage     string `json:"stage"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

type StatsOutput struct {
	Stats *attempt.Stats `json:"stats"`
}

// Tool handlers

func (s *Server) handleList(ctx context.Context, _ ListInput) (ListOutput, error) {
	problems, err := s.problems.List(ctx)
	if err != nil {
		return ListOutput{}, fmt.Errorf("failed to list problems: %w", err)
	}
	out := ListOutput{Problems: make([]ProblemSummary, 0, len(problems))}
	for _, p := range problems {
		out.Problems = append(out.Problems, ProblemSummary{
			ID:         p.ID,
			Title:      p.Title,
			Difficulty: string(p.Difficulty),
			Tags:       p.Tags,
		})
	}
	out.Count = len(out.Problems)
	return out, nil
}

func (s *Server) handleGet(ctx context.Context, input ProblemInput) (ProblemOutput, error) {
	p, err := s.problem(ctx, input.ProblemID)
	if err != nil {
		return ProblemOutput{}, err
	}
	return ProblemOutput{Problem: p, Lines: scrambledLines(p.ParsonsSettings.Initial)}, nil
}

func (s *Server) handleGenerate(ctx context.Context, input GenerateInput) (ProblemOutput, error) {
	p, err := s.problems.Generate(ctx, input.SourceCode)
	if err != nil {
		return ProblemOutput{}, fmt.Errorf("failed to generate problem: %w", err)
	}
	return ProblemOutput{Problem: p, Lines: scrambledLines(p.ParsonsSettings.Initial)}, nil
}

func (s *Server) handleValidate(ctx context.Context, input SolutionInput) (ValidateOutput, error) {
	p, err := s.problem(ctx, input.ProblemID)
	if err != nil {
		return ValidateOutput{}, err
	}
	v, err := s.tutor.Validate(p, input.Solution, nil)
	if err != nil {
		return ValidateOutput{}, fmt.Errorf("failed to validate solution: %w", err)
	}
	return ValidateOutput{
		IsCorrect: v.IsCorrect,
		Details:   v.Details,
		Placed:    v.SolutionLength,
		Expected:  v.ExpectedLength,
		Issues:    v.SpecificIssues,
	}, nil
}

func (s *Server) handleFeedback(ctx context.Context, input SolutionInput) (FeedbackOutput, error) {
	p, err := s.problem(ctx, input.ProblemID)
	if err != nil {
		return FeedbackOutput{}, err
	}
	fb, err := s.tutor.Feedback(ctx, p, input.Solution)
	if err != nil {
		return FeedbackOutput{}, fmt.Errorf("failed to generate feedback: %w", err)
	}
	return FeedbackOutput{Feedback: fb.Feedback, Source: fb.Source}, nil
}

func (s *Server) handleChat(ctx context.Context, input ChatInput) (ChatOutput, error) {
	p, err := s.problem(ctx, input.ProblemID)
	if err != nil {
		return ChatOutput{}, err
	}

	history := make(domain.Transcript, 0, len(input.History))
	for i, t := range input.History {
		history = append(history, domain.NewTurn(fmt.Sprintf("mcp_%d", i), domain.ParseRole(t.Role), t.Content, 0))
	}

	result, err := s.tutor.Chat(ctx, pairing.ChatRequest{
		Problem:        p,
		UserSolution:   input.Solution,
		History:        history,
		CurrentMessage: input.Message,
	})
	if err != nil {
		return ChatOutput{}, fmt.Errorf("failed to generate chat response: %w", err)
	}

	out := ChatOutput{
		Reply:    result.Reply.Content,
		Source:   result.Source,
		Strategy: string(result.Strategy.Approach),
		Stage:    string(result.State.Stage),
	}
	if result.Validation != nil {
		c := result.Validation.IsCorrect
		out.IsCorrect = &c
	}
	return out, nil
}

func (s *Server) handleStats(ctx context.Context, input ProblemInput) (StatsOutput, error) {
	if s.stats == nil {
		return StatsOutput{}, errors.New("attempt statistics are not enabled")
	}
	if strings.TrimSpace(input.ProblemID) == "" {
		return StatsOutput{}, domain.ErrProblemIDRequired
	}
	stats, err := s.stats.Stats(ctx, input.ProblemID)
	if err != nil {
		return StatsOutput{}, fmt.Errorf("failed to load stats: %w", err)
	}
	return StatsOutput{Stats: stats}, nil
}

func (s *Server) problem(ctx context.Context, id string) (*domain.Problem, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrProblemIDRequired
	}
	p, err := s.problems.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("problem %s: %w", id, err)
	}
	return p, nil
}

// scrambledLines lists the draggable lines of a problem, distractors
// included, with the distractor marker removed
func scrambledLines(initial string) []string {
	var lines []string
	for _, raw := range strings.Split(initial, "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		lines = append(lines, strings.TrimSpace(strings.TrimSuffix(strings.TrimRight(raw, " \t"), validation.DistractorMarker)))
	}
	return lines
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
