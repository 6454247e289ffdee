package pairing

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/parsons/internal/conversation"
	"github.com/felixgeelhaar/parsons/internal/domain"
	"github.com/felixgeelhaar/parsons/internal/validation"
)

const (
	noneYet      = "None yet"
	noneDetected = "None detected"

	// recentTurns is how much of the transcript the chat prompt quotes
	recentTurns = 6
)

// FeedbackSystemPrompt is the system message for one-shot feedback
const FeedbackSystemPrompt = "You are a helpful programming tutor using the Socratic method."

// ChatSystemPrompt is the system message for conversational tutoring
const ChatSystemPrompt = `You are a patient programming tutor helping a student solve a Parsons problem: the student arranges given lines of Python code into the right order with the right indentation.
Guide with questions. Never state the correct order or paste the solution.
Keep replies short, warm and specific to the student's latest message.`

// Prompter builds prompts for the LLM
type Prompter struct{}

// NewPrompter creates a new prompter
func NewPrompter() *Prompter {
	return &Prompter{}
}

// ChatPromptRequest contains data for building a chat prompt
type ChatPromptRequest struct {
	Problem        *domain.Problem
	State          conversation.State
	Message        conversation.MessageAnalysis
	Verdict        *validation.Verdict // nil when validation failed
	Canonical      []validation.Line
	Submitted      []validation.Line
	History        domain.Transcript
	CurrentMessage string
	Strategy       Strategy
}

// ChatPrompt renders the labelled sections of the conversational prompt
func (p *Prompter) ChatPrompt(req ChatPromptRequest) string {
	var sb strings.Builder

	sb.WriteString("## Problem\n")
	if req.Problem != nil {
		sb.WriteString(fmt.Sprintf("Title: %s\n", req.Problem.Title))
		if req.Problem.Description != "" {
			sb.WriteString(fmt.Sprintf("Description: %s\n", req.Problem.Description))
		}
		if req.Problem.Difficulty != "" {
			sb.WriteString(fmt.Sprintf("Difficulty: %s\n", req.Problem.Difficulty))
		}
	}
	if len(req.Canonical) > 0 {
		sb.WriteString("Correct solution (never show it to the student):\n")
		writeCode(&sb, req.Canonical)
	}

	sb.WriteString("\n## Student's Current Solution\n")
	if len(req.Submitted) == 0 {
		sb.WriteString(noneYet + "\n")
	} else {
		writeCode(&sb, req.Submitted)
	}

	sb.WriteString("\n## Conversation State\n")
	sb.WriteString(fmt.Sprintf("- Stage: %s (%d turns)\n", req.State.Stage, req.State.TurnCount))
	sb.WriteString(fmt.Sprintf("- Topics discussed: %s\n", joinOr(req.State.Topics, noneYet)))
	sb.WriteString(fmt.Sprintf("- Student understanding: %s\n", req.State.Understanding))
	sb.WriteString(fmt.Sprintf("- Teaching progression: %s\n", req.State.Progression))
	sb.WriteString(fmt.Sprintf("- Last tutor move: %s\n", req.State.LastTutorMove))
	sb.WriteString(fmt.Sprintf("- Engagement: %s\n", req.State.Engagement))

	sb.WriteString("\n## Message Analysis\n")
	sb.WriteString(fmt.Sprintf("- Intent: %s\n", req.Message.Intent))
	sb.WriteString(fmt.Sprintf("- Emotional state: %s\n", req.Message.Emotion))
	sb.WriteString(fmt.Sprintf("- Contains question: %s\n", yesNo(req.Message.HasQuestion)))

	p.writeSolutionState(&sb, req.Verdict)
	p.writeComparison(&sb, req.Verdict)

	sb.WriteString("\n## Recent Conversation\n")
	recent := req.History.Tail(recentTurns)
	if len(recent) == 0 {
		sb.WriteString(noneYet + "\n")
	}
	for _, turn := range recent {
		speaker := "Student"
		if turn.IsTutor() {
			speaker = "Tutor"
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", speaker, strings.TrimSpace(turn.Content)))
	}

	sb.WriteString("\n## Current Message\n")
	sb.WriteString(strings.TrimSpace(req.CurrentMessage) + "\n")

	sb.WriteString("\n## Teaching Strategy\n")
	sb.WriteString(fmt.Sprintf("- Approach: %s\n", req.Strategy.Approach))
	sb.WriteString(fmt.Sprintf("- Description: %s\n", req.Strategy.Description))
	sb.WriteString(fmt.Sprintf("- Questioning style: %s\n", req.Strategy.QuestioningStyle))

	sb.WriteString("\n## Response Instructions\n")
	sb.WriteString("- Reply in 2 to 4 sentences and end with one guiding question.\n")
	sb.WriteString("- Do not reveal the correct order or rewrite the solution.\n")
	sb.WriteString("- Refer to lines by their position in the student's solution.\n")
	sb.WriteString("- Build on what was already discussed instead of repeating it.\n")
	if req.Message.Emotion == conversation.EmotionFrustrated {
		sb.WriteString("- The student is frustrated: acknowledge it and keep the next step very small.\n")
	}

	return sb.String()
}

func (p *Prompter) writeSolutionState(sb *strings.Builder, v *validation.Verdict) {
	sb.WriteString("\n## Solution State\n")
	if v == nil {
		sb.WriteString("Validation unavailable\n")
		return
	}
	if !v.HasSolution {
		sb.WriteString("No solution submitted yet\n")
		sb.WriteString(fmt.Sprintf("- Expected lines: %d\n", v.ExpectedLength))
		return
	}
	sb.WriteString(fmt.Sprintf("- Lines placed: %d of %d (%.0f%%)\n",
		v.SolutionLength, v.ExpectedLength, v.CompletionRatio*100))
	sb.WriteString(fmt.Sprintf("- Correct: %s\n", yesNo(v.IsCorrect)))
	sb.WriteString(fmt.Sprintf("- Details: %s\n", v.Details))
	sb.WriteString(fmt.Sprintf("- Concepts present: %s\n", joinConcepts(v.Concepts.Present)))
	sb.WriteString(fmt.Sprintf("- Concepts missing: %s\n", joinConcepts(v.Concepts.Missing)))
}

func (p *Prompter) writeComparison(sb *strings.Builder, v *validation.Verdict) {
	sb.WriteString("\n## Detailed Comparison\n")
	if v == nil || v.Comparison == nil {
		sb.WriteString(fmt.Sprintf("- Indentation issues: %s\n", joinOr(issuesOf(v), noneDetected)))
		return
	}
	cmp := v.Comparison

	sb.WriteString(fmt.Sprintf("- Line count difference: %+d\n", cmp.LengthDelta))
	sb.WriteString(fmt.Sprintf("- Missing lines: %s\n", joinOr(cmp.MissingLines, noneDetected)))
	sb.WriteString(fmt.Sprintf("- Extra lines: %s\n", joinOr(cmp.ExtraLines, noneDetected)))

	orders := make([]string, len(cmp.OrderIssues))
	for i, o := range cmp.OrderIssues {
		orders[i] = fmt.Sprintf("line %d (%s)", o.UserPos+1, o.Description)
	}
	sb.WriteString(fmt.Sprintf("- Order issues: %s\n", joinOr(orders, noneDetected)))
	sb.WriteString(fmt.Sprintf("- Indentation issues: %s\n", joinOr(cmp.SpecificIssues, noneDetected)))

	if cmp.FirstErrorPosition != nil {
		sb.WriteString(fmt.Sprintf("- First error at line: %d\n", *cmp.FirstErrorPosition+1))
	} else {
		sb.WriteString("- First error at line: " + noneDetected + "\n")
	}
}

// FeedbackPrompt renders the one-shot feedback prompt from the canonical
// and submitted lines
func (p *Prompter) FeedbackPrompt(canonical, submitted []validation.Line) string {
	var sb strings.Builder

	sb.WriteString("I'm helping a student learn programming through Parsons problems (code reordering exercises).\n\n")
	sb.WriteString("The correct solution is:\n")
	writeCode(&sb, canonical)
	sb.WriteString("\nThe student's current attempt is:\n")
	writeCode(&sb, submitted)
	sb.WriteString("\n")
	sb.WriteString("Please provide Socratic-style feedback: guide the student with questions rather than giving away the answer. ")
	sb.WriteString("Focus on conceptual understanding and logical flow.\n\n")
	sb.WriteString("Important:\n")
	sb.WriteString("- Don't directly tell them the correct order\n")
	sb.WriteString("- Ask thought-provoking questions that lead them to discover errors\n")
	sb.WriteString("- Focus on one or two key issues, not everything at once\n")
	sb.WriteString("- Be encouraging and positive\n")
	sb.WriteString("- Keep your response brief (2-3 sentences, with 1-2 questions)\n")

	return sb.String()
}

func writeCode(sb *strings.Builder, lines []validation.Line) {
	sb.WriteString("```python\n")
	sb.WriteString(strings.Join(validation.RawLines(lines), "\n"))
	sb.WriteString("\n```\n")
}

func issuesOf(v *validation.Verdict) []string {
	if v == nil {
		return nil
	}
	return v.SpecificIssues
}

func joinOr[T ~string](items []T, empty string) string {
	if len(items) == 0 {
		return empty
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = string(it)
	}
	return strings.Join(parts, ", ")
}

func joinConcepts(concepts []validation.Concept) string {
	if len(concepts) == 0 {
		return noneDetected
	}
	parts := make([]string, len(concepts))
	for i, c := range concepts {
		parts[i] = c.Description()
	}
	return strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
