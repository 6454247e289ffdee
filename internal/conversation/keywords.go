package conversation

import "strings"

// keywordRule maps a label onto the substrings that signal it. Rule slices
// are evaluated in order, so reordering them changes results.
type keywordRule[T ~string] struct {
	label    T
	keywords []string
}

var topicRules = []keywordRule[Topic]{
	{TopicIndentation, []string{"indent", "spaces", "tab", "whitespace"}},
	{TopicFunctions, []string{"function", "def ", "return", "parameter", "argument"}},
	{TopicLoops, []string{"loop", "for ", "while", "iterat", "repeat"}},
	{TopicConditionals, []string{"if ", "else", "elif", "condition"}},
	{TopicVariables, []string{"variable", "assign", "value"}},
	{TopicOrdering, []string{"order", "first", "before", "after", "sequence", "arrange"}},
	{TopicDebugging, []string{"error", "bug", "wrong", "fix", "debug", "not working"}},
}

var understandingRules = []keywordRule[Understanding]{
	{UnderstandingConfused, []string{"confused", "don't understand", "dont understand", "lost", "no idea", "not sure", "don't get"}},
	{UnderstandingPartial, []string{"i think", "maybe", "kind of", "sort of", "partly", "somewhat"}},
	{UnderstandingUnderstanding, []string{"i understand", "i see", "makes sense", "got it", "that's why", "now i know"}},
	{UnderstandingConfident, []string{"definitely", "i'm sure", "im sure", "easy", "obviously", "i'm confident"}},
}

var intentRules = []keywordRule[Intent]{
	{IntentFrustration, []string{"frustrat", "annoying", "give up", "hate this", "ugh", "this is hard"}},
	{IntentSeekingHelp, []string{"help", "stuck", "hint", "don't know how", "can't figure", "cant figure"}},
	{IntentProposingSolution, []string{"should i", "what if i", "i think it", "i'll try", "i could", "how about"}},
	{IntentConfirming, []string{"i see", "got it", "makes sense", "i understand", "okay so", "so it"}},
	{IntentClarification, []string{"what do you mean", "clarify", "explain", "what is", "what does"}},
	{IntentSpecificQuestion, []string{"why", "how do", "how does", "which", "where"}},
}

var emotionRules = []keywordRule[Emotion]{
	{EmotionFrustrated, []string{"frustrat", "annoy", "give up", "hate", "ugh", "this is hard"}},
	{EmotionConfused, []string{"confus", "don't understand", "dont understand", "lost", "not sure", "don't get"}},
	{EmotionConfident, []string{"i know", "easy", "got it", "definitely", "i'm sure"}},
	{EmotionCurious, []string{"wonder", "curious", "interesting", "what if", "why"}},
}

var (
	factualMarkers     = []string{"what", "which", "where", "when"}
	analyticalMarkers  = []string{"why", "how"}
	reflectiveMarkers  = []string{"do you think", "what if", "could you"}
	explanationMarkers = []string{"because", "this means", "the reason"}
	guidanceMarkers    = []string{"try", "consider", "look at", "next"}
)

// firstMatch returns the label of the first rule with a keyword in text
func firstMatch[T ~string](rules []keywordRule[T], text string) (T, bool) {
	for _, r := range rules {
		if containsAny(text, r.keywords) {
			return r.label, true
		}
	}
	var zero T
	return zero, false
}

// hitCount counts how many of keywords occur in text
func hitCount(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
