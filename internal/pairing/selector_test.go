package pairing

import (
	"testing"

	"github.com/felixgeelhaar/parsons/internal/conversation"
	"github.com/felixgeelhaar/parsons/internal/validation"
)

func TestSelector_Select(t *testing.T) {
	s := NewSelector()

	verdictOf := func(submitted []string, sc *validation.SolutionContext) *validation.Verdict {
		a, err := validation.Analyze("a = 1\nprint(a)", submitted, sc)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		return a.Verdict
	}
	no, yes := false, true
	failing := verdictOf([]string{"print(a)", "a = 1"}, nil)
	passing := verdictOf([]string{"a = 1", "print(a)"}, nil)
	trustedWrong := verdictOf([]string{"print(a)", "a = 1"}, &validation.SolutionContext{IsCorrect: &no})
	trustedRight := verdictOf([]string{"print(a)", "a = 1"}, &validation.SolutionContext{IsCorrect: &yes})

	tests := []struct {
		name    string
		state   conversation.State
		msg     conversation.MessageAnalysis
		verdict *validation.Verdict
		want    Approach
	}{
		{
			name:    "frustration wins over everything",
			state:   conversation.State{Progression: conversation.ProgressionAnalytical, Understanding: conversation.UnderstandingConfused},
			msg:     conversation.MessageAnalysis{Emotion: conversation.EmotionFrustrated, Intent: conversation.IntentSeekingHelp},
			verdict: failing,
			want:    ApproachSupportiveSimplification,
		},
		{
			name:  "confused help seeker",
			state: conversation.State{Progression: conversation.ProgressionDiagnostic, Understanding: conversation.UnderstandingConfused},
			msg:   conversation.MessageAnalysis{Emotion: conversation.EmotionConfused, Intent: conversation.IntentSeekingHelp},
			want:  ApproachDiagnosticScaffolding,
		},
		{
			name:  "diagnostic without submission",
			state: conversation.State{Progression: conversation.ProgressionDiagnostic},
			msg:   conversation.MessageAnalysis{Emotion: conversation.EmotionNeutral, Intent: conversation.IntentGeneralInquiry},
			want:  ApproachInitialExploration,
		},
		{
			name:    "analytical with errors",
			state:   conversation.State{Progression: conversation.ProgressionAnalytical, Understanding: conversation.UnderstandingPartial},
			msg:     conversation.MessageAnalysis{Emotion: conversation.EmotionNeutral},
			verdict: failing,
			want:    ApproachErrorAnalysis,
		},
		{
			name:    "analytical without errors",
			state:   conversation.State{Progression: conversation.ProgressionAnalytical, Understanding: conversation.UnderstandingPartial},
			msg:     conversation.MessageAnalysis{Emotion: conversation.EmotionNeutral},
			verdict: passing,
			want:    ApproachAdaptiveResponse,
		},
		{
			name:    "understanding under guidance",
			state:   conversation.State{Progression: conversation.ProgressionGuidance, Understanding: conversation.UnderstandingUnderstanding},
			msg:     conversation.MessageAnalysis{Emotion: conversation.EmotionConfident},
			verdict: failing,
			want:    ApproachSolutionRefinement,
		},
		{
			name:    "diagnostic with submission falls through",
			state:   conversation.State{Progression: conversation.ProgressionDiagnostic},
			msg:     conversation.MessageAnalysis{Emotion: conversation.EmotionCurious},
			verdict: passing,
			want:    ApproachAdaptiveResponse,
		},
		{
			name:    "analytical with a trusted incorrect context",
			state:   conversation.State{Progression: conversation.ProgressionAnalytical, Understanding: conversation.UnderstandingPartial},
			msg:     conversation.MessageAnalysis{Emotion: conversation.EmotionNeutral},
			verdict: trustedWrong,
			want:    ApproachErrorAnalysis,
		},
		{
			name:    "analytical with a trusted correct context",
			state:   conversation.State{Progression: conversation.ProgressionAnalytical, Understanding: conversation.UnderstandingPartial},
			msg:     conversation.MessageAnalysis{Emotion: conversation.EmotionNeutral},
			verdict: trustedRight,
			want:    ApproachAdaptiveResponse,
		},
		{
			name:  "analytical without a verdict",
			state: conversation.State{Progression: conversation.ProgressionAnalytical, Understanding: conversation.UnderstandingPartial},
			msg:   conversation.MessageAnalysis{Emotion: conversation.EmotionNeutral},
			want:  ApproachAdaptiveResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Select(tt.state, tt.msg, tt.verdict)
			if got.Approach != tt.want {
				t.Errorf("Select() = %q, want %q", got.Approach, tt.want)
			}
			if got.Description == "" || got.QuestioningStyle == "" {
				t.Errorf("strategy %q missing description or style", got.Approach)
			}
		})
	}
}

func TestStrategyFor_Unknown(t *testing.T) {
	if got := StrategyFor("bogus"); got.Approach != ApproachAdaptiveResponse {
		t.Errorf("StrategyFor(bogus) = %q", got.Approach)
	}
}
