package pairing

import (
	"context"

	"github.com/felixgeelhaar/parsons/internal/domain"
	"github.com/felixgeelhaar/parsons/internal/validation"
)

// TutorService defines the tutoring operations used by the daemon handlers
// and the MCP server
type TutorService interface {
	// Validate checks a submission against the canonical solution
	Validate(problem *domain.Problem, submitted []string, sc *validation.SolutionContext) (*validation.Verdict, error)

	// Feedback generates one-shot feedback for a submission
	Feedback(ctx context.Context, problem *domain.Problem, submitted []string) (*FeedbackResult, error)

	// Chat answers the learner's current message
	Chat(ctx context.Context, req ChatRequest) (*ChatResult, error)

	// HasProvider reports whether a remote provider is configured
	HasProvider() bool
}

// Ensure Service implements TutorService
var _ TutorService = (*Service)(nil)
