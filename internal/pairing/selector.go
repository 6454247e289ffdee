// Package pairing turns a validated submission and a conversation into a
// tutoring reply.
package pairing

import (
	"github.com/felixgeelhaar/parsons/internal/conversation"
	"github.com/felixgeelhaar/parsons/internal/validation"
)

// Approach names a teaching strategy
type Approach string

const (
	ApproachSupportiveSimplification Approach = "supportive_simplification"
	ApproachDiagnosticScaffolding    Approach = "diagnostic_scaffolding"
	ApproachInitialExploration       Approach = "initial_exploration"
	ApproachErrorAnalysis            Approach = "error_analysis"
	ApproachSolutionRefinement       Approach = "solution_refinement"
	ApproachAdaptiveResponse         Approach = "adaptive_response"
)

// Strategy tells the composer how the next reply should teach
type Strategy struct {
	Approach         Approach `json:"approach"`
	Description      string   `json:"description"`
	QuestioningStyle string   `json:"questioning_style"`
}

var strategies = map[Approach]Strategy{
	ApproachSupportiveSimplification: {
		Approach:         ApproachSupportiveSimplification,
		Description:      "Acknowledge the difficulty and reduce the problem to one small, manageable step.",
		QuestioningStyle: "gentle and encouraging, one simple question at a time",
	},
	ApproachDiagnosticScaffolding: {
		Approach:         ApproachDiagnosticScaffolding,
		Description:      "Find out what the student already understands before adding structure.",
		QuestioningStyle: "short diagnostic questions that check prior knowledge",
	},
	ApproachInitialExploration: {
		Approach:         ApproachInitialExploration,
		Description:      "Help the student understand what the program must do before arranging any lines.",
		QuestioningStyle: "open-ended questions about the goal of the program",
	},
	ApproachErrorAnalysis: {
		Approach:         ApproachErrorAnalysis,
		Description:      "Guide the student to locate and reason about one specific error in the solution.",
		QuestioningStyle: "targeted questions that point at a line or block without revealing the fix",
	},
	ApproachSolutionRefinement: {
		Approach:         ApproachSolutionRefinement,
		Description:      "Help the student verify and polish a solution that is nearly complete.",
		QuestioningStyle: "reflective questions that ask the student to justify their choices",
	},
	ApproachAdaptiveResponse: {
		Approach:         ApproachAdaptiveResponse,
		Description:      "Answer the student's message and nudge them toward the next step.",
		QuestioningStyle: "balanced Socratic questions",
	},
}

// StrategyFor returns the canonical strategy for an approach
func StrategyFor(a Approach) Strategy {
	if s, ok := strategies[a]; ok {
		return s
	}
	return strategies[ApproachAdaptiveResponse]
}

// Selector determines the teaching strategy for a reply
type Selector struct{}

// NewSelector creates a new selector
func NewSelector() *Selector {
	return &Selector{}
}

// Select picks a strategy. Rules are checked in order and the first match
// wins. v may be nil when validation failed.
func (s *Selector) Select(state conversation.State, msg conversation.MessageAnalysis, v *validation.Verdict) Strategy {
	hasSubmission := v != nil && v.HasSolution
	switch {
	case msg.Emotion == conversation.EmotionFrustrated:
		return StrategyFor(ApproachSupportiveSimplification)
	case msg.Intent == conversation.IntentSeekingHelp && state.Understanding == conversation.UnderstandingConfused:
		return StrategyFor(ApproachDiagnosticScaffolding)
	case state.Progression == conversation.ProgressionDiagnostic && !hasSubmission:
		return StrategyFor(ApproachInitialExploration)
	case state.Progression == conversation.ProgressionAnalytical && v.HasErrors():
		return StrategyFor(ApproachErrorAnalysis)
	case state.Understanding == conversation.UnderstandingUnderstanding && state.Progression == conversation.ProgressionGuidance:
		return StrategyFor(ApproachSolutionRefinement)
	default:
		return StrategyFor(ApproachAdaptiveResponse)
	}
}
