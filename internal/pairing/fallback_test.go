package pairing

import (
	"fmt"
	"strings"
	"testing"

	"github.com/felixgeelhaar/parsons/internal/conversation"
	"github.com/felixgeelhaar/parsons/internal/validation"
)

func lines(raw ...string) []validation.Line {
	return validation.CleanSubmission(raw)
}

func TestTraditionalFeedback(t *testing.T) {
	tests := []struct {
		name      string
		canonical []validation.Line
		submitted []validation.Line
		correct   bool
		want      string
	}{
		{
			name:      "correct",
			canonical: lines("a = 1"),
			submitted: lines("a = 1"),
			correct:   true,
			want:      hintCorrect,
		},
		{
			name:      "line count differs",
			canonical: lines("a = 1", "print(a)"),
			submitted: lines("a = 1"),
			want:      hintLineCount,
		},
		{
			name:      "first line wrong",
			canonical: lines("a = 1", "print(a)"),
			submitted: lines("print(a)", "a = 1"),
			want:      hintFirstLine,
		},
		{
			name:      "control structure expected",
			canonical: lines("x = 1", "if x:", "    print(x)"),
			submitted: lines("x = 1", "print(x)", "if x:"),
			want:      fmt.Sprintf(hintControl, 2),
		},
		{
			name:      "operation expected",
			canonical: lines("def f(x):", "    y = x * 2", "    return y"),
			submitted: lines("def f(x):", "return y", "y = x * 2"),
			want:      fmt.Sprintf(hintOperation, 2),
		},
		{
			name:      "generic line",
			canonical: lines("print(a)", "print(b)"),
			submitted: lines("print(a)", "print(c)"),
			want:      fmt.Sprintf(hintGenericLine, 2),
		},
		{
			name:      "indentation only",
			canonical: lines("def f():", "    return 1"),
			submitted: lines("def f():", "return 1"),
			want:      hintReviewFlow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TraditionalFeedback(tt.canonical, tt.submitted, tt.correct)
			if got != tt.want {
				t.Errorf("TraditionalFeedback() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFallbackReply_Rules(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"What order should these go in?", fallbackRules[0].reply},
		{"How many spaces do I need?", fallbackRules[1].reply},
		{"I'm stuck", fallbackRules[2].reply},
		{"why is there a for here", fallbackRules[3].reply},
		{"what does the condition do", fallbackRules[4].reply},
		{"what is a parameter", fallbackRules[5].reply},
		{"I think I'm done", fallbackRules[6].reply},
		{"hello there", DefaultChatReply},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := FallbackReply(FallbackRequest{Message: tt.message}); got != tt.want {
				t.Errorf("FallbackReply(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestFallbackReply_PriorTopicContext(t *testing.T) {
	got := FallbackReply(FallbackRequest{
		Message:     "which goes first?",
		PriorTopics: []conversation.Topic{conversation.TopicOrdering},
	})
	if !strings.HasPrefix(got, "We looked at the order of the lines earlier. let's think") {
		t.Errorf("FallbackReply() = %q, want ordering context prefix", got)
	}

	got = FallbackReply(FallbackRequest{
		Message:     "which goes first?",
		PriorTopics: []conversation.Topic{conversation.TopicLoops},
	})
	if got != fallbackRules[0].reply {
		t.Errorf("unrelated prior topic should not add context, got %q", got)
	}
}

func TestFallbackReply_SolutionLine(t *testing.T) {
	initial := "def f():\n    return 1"

	indent, _ := validation.Check(initial, []string{"def f():", "return 1"}, nil)
	got := FallbackReply(FallbackRequest{Message: "hello", Verdict: indent})
	if !strings.HasSuffix(got, "some lines may not be indented as expected.") {
		t.Errorf("indentation verdict not reflected: %q", got)
	}

	correct, _ := validation.Check(initial, []string{"def f():", "    return 1"}, nil)
	got = FallbackReply(FallbackRequest{Message: "hello", Verdict: correct})
	if !strings.Contains(got, "looks correct") {
		t.Errorf("correct verdict not reflected: %q", got)
	}

	empty, _ := validation.Check(initial, nil, nil)
	if got := FallbackReply(FallbackRequest{Message: "hello", Verdict: empty}); got != DefaultChatReply {
		t.Errorf("no submission should add nothing, got %q", got)
	}
}

func TestFallbackReply_Deterministic(t *testing.T) {
	req := FallbackRequest{Message: "I need help with the loop"}
	if FallbackReply(req) != FallbackReply(req) {
		t.Error("FallbackReply() is not deterministic")
	}
}
