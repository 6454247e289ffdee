package pairing

import (
	"strings"
	"unicode"

	"github.com/felixgeelhaar/parsons/internal/conversation"
)

const (
	maxReplyChars     = 600
	maxReplySentences = 4
	minReplyChars     = 40

	empatheticPreface = "I understand this can be frustrating. "
	affirmingPreface  = "Great thinking! "
)

var genericReplies = map[string]bool{
	"good job":      true,
	"great":         true,
	"great job":     true,
	"nice work":     true,
	"well done":     true,
	"keep going":    true,
	"keep it up":    true,
	"that's right":  true,
	"correct":       true,
	"okay":          true,
	"ok":            true,
	"good question": true,
	"you got it":    true,
}

// PostProcess shapes a remote reply: it bounds the length, fixes terminal
// punctuation, patches degenerate replies and adjusts the opening for the
// learner's emotional state
func PostProcess(reply string, msg conversation.MessageAnalysis, hasSubmission bool) string {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return reply
	}

	if len([]rune(reply)) > maxReplyChars {
		reply = firstSentences(reply, maxReplySentences)
	}
	reply = ensureTerminalPunctuation(reply)

	if len([]rune(reply)) < minReplyChars || isGeneric(reply) {
		reply += " " + followUpQuestion(hasSubmission)
	}

	lower := strings.ToLower(reply)
	switch msg.Emotion {
	case conversation.EmotionFrustrated:
		if !strings.Contains(lower, "frustrat") && !strings.HasPrefix(lower, "i understand") {
			reply = empatheticPreface + reply
		}
	case conversation.EmotionConfident:
		if !strings.HasPrefix(lower, "great") && !strings.HasPrefix(lower, "nice") && !strings.HasPrefix(lower, "excellent") {
			reply = affirmingPreface + reply
		}
	}
	return reply
}

// firstSentences keeps the first n sentences. A sentence ends at '.', '!'
// or '?' followed by whitespace or the end of text.
func firstSentences(text string, n int) string {
	runes := []rune(text)
	count := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		count++
		if count == n {
			return string(runes[:i+1])
		}
	}
	return text
}

func ensureTerminalPunctuation(s string) string {
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + "."
}

func isGeneric(reply string) bool {
	key := strings.ToLower(strings.TrimRightFunc(reply, unicode.IsPunct))
	return genericReplies[strings.TrimSpace(key)]
}

func followUpQuestion(hasSubmission bool) string {
	if hasSubmission {
		return "Which line in your current solution are you least sure about?"
	}
	return "What do you think the program needs to do first?"
}
