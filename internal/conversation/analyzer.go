package conversation

import "strings"

// Intent is what the learner is trying to do with a message
type Intent string

const (
	IntentFrustration       Intent = "expressing_frustration"
	IntentSeekingHelp       Intent = "seeking_help"
	IntentProposingSolution Intent = "proposing_solution"
	IntentConfirming        Intent = "confirming_understanding"
	IntentClarification     Intent = "asking_clarification"
	IntentSpecificQuestion  Intent = "asking_specific_question"
	IntentGeneralInquiry    Intent = "general_inquiry"
)

// Emotion is the tone detected in a message
type Emotion string

const (
	EmotionFrustrated Emotion = "frustrated"
	EmotionConfused   Emotion = "confused"
	EmotionConfident  Emotion = "confident"
	EmotionCurious    Emotion = "curious"
	EmotionNeutral    Emotion = "neutral"
)

// MessageAnalysis classifies a single learner message
type MessageAnalysis struct {
	Intent      Intent  `json:"intent"`
	Emotion     Emotion `json:"emotional_state"`
	HasQuestion bool    `json:"has_question"`
	Length      int     `json:"length"`
	Topics      []Topic `json:"topics"`
}

// AnalyzeMessage classifies intent and emotion with ordered keyword buckets
func AnalyzeMessage(message string) MessageAnalysis {
	text := normalize(message)

	intent, ok := firstMatch(intentRules, text)
	if !ok {
		if strings.HasSuffix(text, "?") {
			intent = IntentSpecificQuestion
		} else {
			intent = IntentGeneralInquiry
		}
	}

	emotion, ok := firstMatch(emotionRules, text)
	if !ok {
		emotion = EmotionNeutral
	}

	topics := []Topic{}
	for _, rule := range topicRules {
		if containsAny(text, rule.keywords) {
			topics = append(topics, rule.label)
		}
	}

	return MessageAnalysis{
		Intent:      intent,
		Emotion:     emotion,
		HasQuestion: strings.Contains(text, "?"),
		Length:      len([]rune(message)),
		Topics:      topics,
	}
}
