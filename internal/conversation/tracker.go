package conversation

import (
	"strings"

	"github.com/felixgeelhaar/parsons/internal/domain"
)

const (
	understandingWindow = 3
	engagementWindow    = 2
)

// Tracker summarizes transcripts
type Tracker struct{}

// NewTracker creates a new tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Summarize derives the conversation state from a transcript
func (t *Tracker) Summarize(transcript domain.Transcript) State {
	stage := StageFor(len(transcript))
	topics := DetectTopics(transcript)
	understanding := EstimateUnderstanding(transcript)

	return State{
		Stage:         stage,
		TurnCount:     len(transcript),
		Topics:        topics,
		Understanding: understanding,
		Progression:   RecommendProgression(stage, understanding, len(topics)),
		LastTutorMove: lastTutorMove(transcript),
		Engagement:    MeasureEngagement(transcript),
	}
}

// StageFor maps a turn count onto a conversation stage
func StageFor(turns int) Stage {
	switch {
	case turns <= 2:
		return StageInitial
	case turns <= 6:
		return StageExploration
	case turns <= 10:
		return StageGuidedAnalysis
	default:
		return StageDeepEngagement
	}
}

// DetectTopics returns every topic mentioned by any turn, in topic order
func DetectTopics(transcript domain.Transcript) []Topic {
	texts := make([]string, len(transcript))
	for i, turn := range transcript {
		texts[i] = normalize(turn.Content)
	}

	topics := []Topic{}
	for _, rule := range topicRules {
		for _, text := range texts {
			if containsAny(text, rule.keywords) {
				topics = append(topics, rule.label)
				break
			}
		}
	}
	return topics
}

// EstimateUnderstanding scores the last student turns against each
// understanding category, summing hits per turn. Ties go to the earlier category.
func EstimateUnderstanding(transcript domain.Transcript) Understanding {
	student := transcript.StudentTurns()
	if len(student) > understandingWindow {
		student = student[len(student)-understandingWindow:]
	}

	texts := make([]string, len(student))
	for i, turn := range student {
		texts[i] = normalize(turn.Content)
	}

	best, bestHits := UnderstandingUnknown, 0
	for _, rule := range understandingRules {
		hits := 0
		for _, text := range texts {
			hits += hitCount(text, rule.keywords)
		}
		if hits > bestHits {
			best, bestHits = rule.label, hits
		}
	}
	return best
}

// RecommendProgression picks the next teaching mode. The first matching
// row wins and diagnostic is the explicit default.
func RecommendProgression(stage Stage, understanding Understanding, topicCount int) Progression {
	switch {
	case stage == StageInitial:
		return ProgressionDiagnostic
	case understanding == UnderstandingConfused && topicCount < 2:
		return ProgressionDiagnostic
	case understanding == UnderstandingUnderstanding && topicCount >= 2:
		return ProgressionGuidance
	case (understanding == UnderstandingPartial || understanding == UnderstandingUnderstanding) && topicCount >= 1:
		return ProgressionAnalytical
	default:
		return ProgressionDiagnostic
	}
}

func lastTutorMove(transcript domain.Transcript) TutorMove {
	turn, ok := transcript.LastTutorTurn()
	if !ok {
		return MoveNone
	}
	return ClassifyTutorMove(turn.Content)
}

// ClassifyTutorMove labels a tutor message as a kind of question or
// statement
func ClassifyTutorMove(content string) TutorMove {
	text := normalize(content)
	if strings.Contains(text, "?") {
		switch {
		case containsAny(text, factualMarkers):
			return MoveFactual
		case containsAny(text, analyticalMarkers):
			return MoveAnalytical
		case containsAny(text, reflectiveMarkers):
			return MoveReflective
		default:
			return MoveGeneralQuestion
		}
	}
	switch {
	case containsAny(text, explanationMarkers):
		return MoveExplanation
	case containsAny(text, guidanceMarkers):
		return MoveGuidance
	default:
		return MoveSupportive
	}
}

// MeasureEngagement buckets the average length of the last student turns
func MeasureEngagement(transcript domain.Transcript) Engagement {
	student := transcript.StudentTurns()
	if len(student) == 0 {
		return EngagementUnknown
	}
	if len(student) > engagementWindow {
		student = student[len(student)-engagementWindow:]
	}

	total := 0
	for _, turn := range student {
		total += len([]rune(turn.Content))
	}
	avg := float64(total) / float64(len(student))

	switch {
	case avg < 20:
		return EngagementLow
	case avg < 50:
		return EngagementMedium
	default:
		return EngagementHigh
	}
}
