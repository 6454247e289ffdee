package pairing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/parsons/internal/conversation"
	"github.com/felixgeelhaar/parsons/internal/domain"
	"github.com/felixgeelhaar/parsons/internal/llm"
	"github.com/felixgeelhaar/parsons/internal/validation"
)

// Reply sources
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// DefaultTimeout bounds each remote generation call
const DefaultTimeout = 20 * time.Second

// Generation parameters
const (
	feedbackMaxTokens   = 200
	feedbackTemperature = 0.3
	chatMaxTokens       = 300
	chatTemperature     = 0.7
	chatPenalty         = 0.1
)

// Config holds optional collaborators of the Service
type Config struct {
	// Timeout for each remote call (default: DefaultTimeout)
	Timeout time.Duration

	// Events receives attempt events; nil disables publishing
	Events *domain.EventDispatcher

	// Logger defaults to slog.Default()
	Logger *slog.Logger
}

// Service is the feedback orchestrator. Whether a remote provider is used is
// decided once, at construction.
type Service struct {
	provider llm.Provider // nil when no credential is configured
	selector *Selector
	prompter *Prompter
	tracker  *conversation.Tracker
	timeout  time.Duration
	events   *domain.EventDispatcher
	logger   *slog.Logger
}

// NewService creates a new tutoring service
func NewService(registry llm.LLMRegistry, cfg Config) *Service {
	s := &Service{
		selector: NewSelector(),
		prompter: NewPrompter(),
		tracker:  conversation.NewTracker(),
		timeout:  cfg.Timeout,
		events:   cfg.Events,
		logger:   cfg.Logger,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if registry != nil {
		if p, err := registry.Default(); err == nil {
			s.provider = p
		}
	}
	return s
}

// HasProvider reports whether replies are attempted remotely
func (s *Service) HasProvider() bool {
	return s.provider != nil
}

// FeedbackResult is the outcome of one-shot feedback
type FeedbackResult struct {
	Feedback string              `json:"feedback"`
	Source   string              `json:"source"`
	Verdict  *validation.Verdict `json:"-"`
}

// Feedback generates one-shot Socratic feedback for a submission
func (s *Service) Feedback(ctx context.Context, problem *domain.Problem, submitted []string) (*FeedbackResult, error) {
	if problem == nil {
		return nil, domain.ErrProblemNotFound
	}
	analysis, err := validation.Analyze(problem.ParsonsSettings.Initial, submitted, nil)
	if err != nil {
		return nil, fmt.Errorf("analyze submission: %w", err)
	}

	text, source := s.feedbackText(ctx, analysis)
	s.events.Publish(domain.NewFeedbackGeneratedEvent(problem.ID, source))

	return &FeedbackResult{Feedback: text, Source: source, Verdict: analysis.Verdict}, nil
}

func (s *Service) feedbackText(ctx context.Context, a *validation.Analysis) (string, string) {
	fallback := func() string {
		return TraditionalFeedback(a.Canonical, a.Submitted, a.Verdict.IsCorrect)
	}
	if s.provider == nil {
		return fallback(), SourceFallback
	}

	reply, err := s.generate(ctx, &llm.Request{
		System:      FeedbackSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: s.prompter.FeedbackPrompt(a.Canonical, a.Submitted)}},
		MaxTokens:   feedbackMaxTokens,
		Temperature: feedbackTemperature,
	})
	if err != nil {
		s.logger.Warn("remote feedback failed, using fallback", "provider", s.provider.Name(), "error", err)
		return fallback(), SourceFallback
	}
	return reply, SourceLLM
}

// ChatRequest contains one conversational turn to answer
type ChatRequest struct {
	Problem         *domain.Problem
	UserSolution    []string
	History         domain.Transcript
	CurrentMessage  string
	SolutionContext *validation.SolutionContext
}

// SolutionValidation is the summary verdict attached to a chat reply
type SolutionValidation struct {
	IsCorrect bool   `json:"isCorrect"`
	Details   string `json:"details,omitempty"`
}

// ChatResult is the outcome of a chat turn
type ChatResult struct {
	Reply               domain.Turn                  `json:"chatMessage"`
	Source              string                       `json:"source"`
	Strategy            Strategy                     `json:"strategy"`
	State               conversation.State           `json:"conversationState"`
	Message             conversation.MessageAnalysis `json:"messageAnalysis"`
	TraditionalFeedback *string                      `json:"traditionalFeedback,omitempty"`
	Validation          *SolutionValidation          `json:"solutionValidation,omitempty"`
}

// Chat answers the learner's current message. Remote failures never
// surface as errors; they fall back to a deterministic reply.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if req.Problem == nil {
		return nil, domain.ErrProblemNotFound
	}
	if strings.TrimSpace(req.CurrentMessage) == "" {
		return nil, domain.ErrEmptyMessage
	}

	now := domain.NowMillis()
	transcript := append(append(domain.Transcript{}, req.History...),
		domain.NewTurn("", domain.RoleStudent, req.CurrentMessage, now))
	state := s.tracker.Summarize(transcript)
	msg := conversation.AnalyzeMessage(req.CurrentMessage)

	analysis, err := validation.Analyze(req.Problem.ParsonsSettings.Initial, req.UserSolution, req.SolutionContext)
	if err != nil {
		s.logger.Error("chat validation failed", "problem_id", req.Problem.ID, "error", err)
		analysis = nil
	}

	var verdict *validation.Verdict
	if analysis != nil {
		verdict = analysis.Verdict
	}
	strategy := s.selector.Select(state, msg, verdict)

	content, source := s.chatReply(ctx, req, state, msg, analysis, strategy)

	result := &ChatResult{
		Reply:    domain.Turn{ID: domain.NewChatMessageID(time.Now()), Role: domain.RoleTutor, Content: content, Timestamp: domain.NowMillis()},
		Source:   source,
		Strategy: strategy,
		State:    state,
		Message:  msg,
	}

	switch {
	case analysis == nil && len(validation.CleanSubmission(req.UserSolution)) > 0:
		fb := FeedbackUnavailable
		result.TraditionalFeedback = &fb
		result.Validation = &SolutionValidation{IsCorrect: false, Details: ValidationUnavailable}
	case verdict != nil && verdict.HasSolution:
		fb, _ := s.feedbackText(ctx, analysis)
		result.TraditionalFeedback = &fb
		result.Validation = &SolutionValidation{IsCorrect: verdict.IsCorrect, Details: verdict.Details}
	}

	var correct *bool
	if result.Validation != nil && analysis != nil {
		c := result.Validation.IsCorrect
		correct = &c
	}
	s.events.Publish(domain.NewChatRepliedEvent(req.Problem.ID, source, string(strategy.Approach), string(state.Stage), correct))

	return result, nil
}

func (s *Service) chatReply(ctx context.Context, req ChatRequest, state conversation.State, msg conversation.MessageAnalysis, analysis *validation.Analysis, strategy Strategy) (string, string) {
	promptReq := ChatPromptRequest{
		Problem:        req.Problem,
		State:          state,
		Message:        msg,
		History:        req.History,
		CurrentMessage: req.CurrentMessage,
		Strategy:       strategy,
	}
	if analysis != nil {
		promptReq.Verdict = analysis.Verdict
		promptReq.Canonical = analysis.Canonical
		promptReq.Submitted = analysis.Submitted
	}
	verdict := promptReq.Verdict

	fallback := func() string {
		return FallbackReply(FallbackRequest{
			Message:     req.CurrentMessage,
			PriorTopics: conversation.DetectTopics(req.History),
			Verdict:     verdict,
		})
	}
	if s.provider == nil {
		return fallback(), SourceFallback
	}

	prompt := s.prompter.ChatPrompt(promptReq)
	reply, err := s.generate(ctx, &llm.Request{
		System:           ChatSystemPrompt,
		Messages:         []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:        chatMaxTokens,
		Temperature:      chatTemperature,
		PresencePenalty:  chatPenalty,
		FrequencyPenalty: chatPenalty,
	})
	if err != nil {
		s.logger.Warn("remote chat reply failed, using fallback",
			"provider", s.provider.Name(),
			"strategy", strategy.Approach,
			"error", err)
		return fallback(), SourceFallback
	}
	return PostProcess(reply, msg, verdict != nil && verdict.HasSolution), SourceLLM
}

// generate runs one remote call under the service timeout. An empty reply
// is an error.
func (s *Service) generate(ctx context.Context, req *llm.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", llm.ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Content), nil
}

// Validate checks a submission and publishes the outcome
func (s *Service) Validate(problem *domain.Problem, submitted []string, sc *validation.SolutionContext) (*validation.Verdict, error) {
	if problem == nil {
		return nil, domain.ErrProblemNotFound
	}
	v, err := validation.Check(problem.ParsonsSettings.Initial, submitted, sc)
	if err != nil {
		return nil, errors.Join(domain.ErrInternalError, err)
	}
	s.events.Publish(domain.NewSolutionValidatedEvent(problem.ID, v.IsCorrect, v.SolutionLength, v.ExpectedLength, len(v.IndentationErrors)))
	return v, nil
}
