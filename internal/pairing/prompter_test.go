package pairing

import (
	"strings"
	"testing"

	"github.com/felixgeelhaar/parsons/internal/conversation"
	"github.com/felixgeelhaar/parsons/internal/domain"
	"github.com/felixgeelhaar/parsons/internal/validation"
)

func testProblem() *domain.Problem {
	return &domain.Problem{
		ID:          "p1",
		Title:       "Double a number",
		Description: "Return twice the input",
		Difficulty:  domain.DifficultyEasy,
		ParsonsSettings: domain.ParsonsSettings{
			Initial: "def f(x):\n    y = x * 2\n    return y\n    return x #distractor",
		},
	}
}

func TestPrompter_ChatPrompt_Sections(t *testing.T) {
	p := NewPrompter()
	a, err := validation.Analyze(testProblem().ParsonsSettings.Initial, []string{"def f(x):", "return y"}, nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	prompt := p.ChatPrompt(ChatPromptRequest{
		Problem:        testProblem(),
		State:          conversation.State{Stage: conversation.StageExploration, TurnCount: 3, Understanding: conversation.UnderstandingPartial},
		Message:        conversation.MessageAnalysis{Intent: conversation.IntentSeekingHelp, Emotion: conversation.EmotionNeutral},
		Verdict:        a.Verdict,
		Canonical:      a.Canonical,
		Submitted:      a.Submitted,
		History:        domain.Transcript{domain.NewTurn("1", domain.RoleStudent, "hi", 1), domain.NewTurn("2", domain.RoleTutor, "hello", 2)},
		CurrentMessage: "where does return go?",
		Strategy:       StrategyFor(ApproachErrorAnalysis),
	})

	sections := []string{
		"## Problem", "## Student's Current Solution", "## Conversation State", "## Message Analysis", "## Solution State",
		"## Detailed Comparison", "## Recent Conversation", "## Current Message",
		"## Teaching Strategy", "## Response Instructions",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(prompt, s)
		if idx < 0 {
			t.Fatalf("prompt missing section %q", s)
		}
		if idx < last {
			t.Errorf("section %q out of order", s)
		}
		last = idx
	}

	for _, want := range []string{
		"Title: Double a number",
		"Topics discussed: None yet",
		"Lines placed: 2 of 3 (67%)",
		"Student: hi",
		"Tutor: hello",
		"where does return go?",
		"Approach: error_analysis",
		"Line count difference: -1",
		"```python\ndef f(x):\n    y = x * 2\n    return y\n```",
		"## Student's Current Solution\n```python\ndef f(x):\nreturn y\n```",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "#distractor") {
		t.Error("distractors must not leak into the chat prompt")
	}
}

func TestPrompter_ChatPrompt_Deterministic(t *testing.T) {
	p := NewPrompter()
	req := ChatPromptRequest{
		Problem:        testProblem(),
		CurrentMessage: "help",
		Strategy:       StrategyFor(ApproachInitialExploration),
	}
	if p.ChatPrompt(req) != p.ChatPrompt(req) {
		t.Error("ChatPrompt() is not deterministic")
	}
	prompt := p.ChatPrompt(req)
	if !strings.Contains(prompt, "Validation unavailable") {
		t.Error("nil verdict should be rendered as unavailable")
	}
	if !strings.Contains(prompt, "## Recent Conversation\nNone yet") {
		t.Error("empty history should render None yet")
	}
	if !strings.Contains(prompt, "## Student's Current Solution\nNone yet") {
		t.Error("empty submission should render None yet")
	}
}

func TestPrompter_ChatPrompt_NoSubmission(t *testing.T) {
	p := NewPrompter()
	v, _ := validation.Analyze(testProblem().ParsonsSettings.Initial, nil, nil)
	prompt := p.ChatPrompt(ChatPromptRequest{Problem: testProblem(), Verdict: v.Verdict, CurrentMessage: "hi"})
	if !strings.Contains(prompt, "No solution submitted yet") {
		t.Error("missing no-submission marker")
	}
}

func TestPrompter_FeedbackPrompt(t *testing.T) {
	p := NewPrompter()
	canonical := validation.ExtractCanonical(testProblem().ParsonsSettings.Initial)
	prompt := p.FeedbackPrompt(canonical, validation.CleanSubmission([]string{"return y", "def f(x):"}))

	if !strings.Contains(prompt, "def f(x):\n    y = x * 2\n    return y\n```") {
		t.Errorf("canonical solution not rendered with indentation:\n%s", prompt)
	}
	if strings.Contains(prompt, "#distractor") {
		t.Error("distractors must not leak into the prompt")
	}
	if !strings.Contains(prompt, "Don't directly tell them the correct order") {
		t.Error("missing Socratic rules")
	}
}
