package pairing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/parsons/internal/conversation"
	"github.com/felixgeelhaar/parsons/internal/validation"
)

// Canned replies used when no remote reply is available
const (
	DefaultChatReply = "I'm here to help! Can you tell me more about what you're trying to figure out with this problem?"
	ChatErrorReply   = "I apologize, but I encountered an error. Please try asking your question again, or let me know if you need help with a specific part of the problem."

	FeedbackUnavailable   = "Unable to generate traditional feedback at this time."
	ValidationUnavailable = "Unable to validate solution at this time."
)

// Traditional one-shot hints
const (
	hintCorrect     = "Great work, your solution looks correct! Can you explain why each line needs to be in the position you chose?"
	hintLineCount   = "I notice your solution has a different number of lines than expected. Have you included all the necessary code blocks? Are there any blocks that might not belong?"
	hintFirstLine   = "I'm looking at the very first line of your solution. Is this the right place to start? What should happen first in this program?"
	hintControl     = "Take a look at line %d of your solution. Should this be a control structure? What would be the logical flow at this point in the program?"
	hintOperation   = "Consider line %d. What operation needs to happen at this point in the program? What values do we need to calculate or return?"
	hintGenericLine = "I'm noticing an issue around line %d. What do you think should happen at this point in the program flow?"
	hintReviewFlow  = "I see some issues with your solution. Can you review the logical flow of your program? What should happen first, and what operations follow?"
)

var controlKeywords = []string{"if", "for", "while", "def"}

// TraditionalFeedback produces a deterministic Socratic hint from the first
// place the submission diverges from the canonical solution
func TraditionalFeedback(canonical, submitted []validation.Line, correct bool) string {
	if correct {
		return hintCorrect
	}
	if len(submitted) != len(canonical) {
		return hintLineCount
	}
	for i := range submitted {
		want := canonical[i].Content
		if submitted[i].Content == want {
			continue
		}
		switch {
		case i == 0:
			return hintFirstLine
		case containsAnyString(want, controlKeywords):
			return fmt.Sprintf(hintControl, i+1)
		case strings.Contains(want, "=") || strings.Contains(want, "return"):
			return fmt.Sprintf(hintOperation, i+1)
		default:
			return fmt.Sprintf(hintGenericLine, i+1)
		}
	}
	// Content matches everywhere; only the indentation differs.
	return hintReviewFlow
}

type fallbackRule struct {
	pattern *regexp.Regexp
	topic   conversation.Topic // empty when the rule has no topic
	context string
	reply   string
}

// fallbackRules are checked in order against the learner's message
var fallbackRules = []fallbackRule{
	{
		pattern: regexp.MustCompile(`\b(order|first|sequence|arrange|before|after)\b`),
		topic:   conversation.TopicOrdering,
		context: "We looked at the order of the lines earlier. ",
		reply:   "Let's think about the order step by step. What needs to happen before anything else can run?",
	},
	{
		pattern: regexp.MustCompile(`\b(indent\w*|spaces?|tabs?)\b`),
		topic:   conversation.TopicIndentation,
		context: "We discussed indentation before. ",
		reply:   "Indentation shows which lines belong together. Which lines should live inside a block, such as a loop or a function body?",
	},
	{
		pattern: regexp.MustCompile(`\b(stuck|help|hint|don'?t know|lost)\b`),
		reply:   "That's okay, let's break it down together. In your own words, what is this program supposed to do?",
	},
	{
		pattern: regexp.MustCompile(`\b(loops?|for|while|repeat\w*|iterat\w*)\b`),
		topic:   conversation.TopicLoops,
		context: "Loops came up earlier too. ",
		reply:   "A loop repeats a block of code. Which lines should run again on every pass through the loop?",
	},
	{
		pattern: regexp.MustCompile(`\b(if|else|elif|conditions?|conditional)\b`),
		topic:   conversation.TopicConditionals,
		context: "Building on what we said about conditions, ",
		reply:   "A condition decides which code runs. What should the program check, and what should happen in each case?",
	},
	{
		pattern: regexp.MustCompile(`\b(functions?|def|return\w*|parameters?)\b`),
		topic:   conversation.TopicFunctions,
		context: "Going back to functions, ",
		reply:   "A function starts with its definition line. What does the function receive, and what should it give back?",
	},
	{
		pattern: regexp.MustCompile(`\b(correct|done|finished|right|solved)\b`),
		reply:   "Nice progress! How could you check that your arrangement works for every input?",
	},
}

// FallbackRequest contains what the fallback responder needs
type FallbackRequest struct {
	Message     string
	PriorTopics []conversation.Topic // topics discussed before the current message
	Verdict     *validation.Verdict
}

// FallbackReply produces a deterministic keyword-matched reply
func FallbackReply(req FallbackRequest) string {
	text := strings.ToLower(req.Message)

	reply := DefaultChatReply
	for _, rule := range fallbackRules {
		if !rule.pattern.MatchString(text) {
			continue
		}
		reply = rule.reply
		if rule.topic != "" && hasTopic(req.PriorTopics, rule.topic) {
			reply = rule.context + lowerFirst(reply)
		}
		break
	}

	if line := solutionLine(req.Verdict); line != "" {
		reply += " " + line
	}
	return reply
}

func solutionLine(v *validation.Verdict) string {
	if v == nil || !v.HasSolution {
		return ""
	}
	switch {
	case v.IsCorrect:
		return "Your current arrangement looks correct, so try explaining why each line is where it is."
	case v.HasIndentationIssues:
		return "I also notice that some lines may not be indented as expected."
	case v.Comparison != nil && v.Comparison.LengthDelta != 0:
		return "Check whether you have used every block you need, and only those."
	case v.Comparison != nil && v.Comparison.FirstErrorPosition != nil:
		return fmt.Sprintf("Take another look around line %d of your solution.", *v.Comparison.FirstErrorPosition+1)
	default:
		return ""
	}
}

func hasTopic(topics []conversation.Topic, t conversation.Topic) bool {
	for _, x := range topics {
		if x == t {
			return true
		}
	}
	return false
}

// lowerFirst lowercases the first letter unless the reply starts with "I"
func lowerFirst(s string) string {
	if s == "" || strings.HasPrefix(s, "I ") || strings.HasPrefix(s, "I'") {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func containsAnyString(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
