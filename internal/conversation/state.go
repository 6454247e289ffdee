// Package conversation derives a tutoring conversation's state from its
// transcript and classifies individual learner messages.
package conversation

// Stage is how far a conversation has progressed
type Stage string

const (
	StageInitial        Stage = "initial"
	StageExploration    Stage = "exploration"
	StageGuidedAnalysis Stage = "guided_analysis"
	StageDeepEngagement Stage = "deep_engagement"
)

// Topic is a subject the conversation has touched on
type Topic string

const (
	TopicIndentation  Topic = "indentation"
	TopicFunctions    Topic = "functions"
	TopicLoops        Topic = "loops"
	TopicConditionals Topic = "conditionals"
	TopicVariables    Topic = "variables"
	TopicOrdering     Topic = "ordering"
	TopicDebugging    Topic = "debugging"
)

// Understanding is the estimated comprehension level of the learner
type Understanding string

const (
	UnderstandingUnknown       Understanding = "unknown"
	UnderstandingConfused      Understanding = "confused"
	UnderstandingPartial       Understanding = "partial"
	UnderstandingUnderstanding Understanding = "understanding"
	UnderstandingConfident     Understanding = "confident"
)

// Progression is the recommended next teaching mode
type Progression string

const (
	ProgressionDiagnostic Progression = "diagnostic"
	ProgressionAnalytical Progression = "analytical"
	ProgressionGuidance   Progression = "guidance"
)

// TutorMove is the kind of the tutor's most recent contribution
type TutorMove string

const (
	MoveNone            TutorMove = "none"
	MoveFactual         TutorMove = "factual_question"
	MoveAnalytical      TutorMove = "analytical_question"
	MoveReflective      TutorMove = "reflective_question"
	MoveGeneralQuestion TutorMove = "general_question"
	MoveExplanation     TutorMove = "explanation"
	MoveGuidance        TutorMove = "guidance"
	MoveSupportive      TutorMove = "supportive"
)

// Engagement buckets the length of recent learner messages
type Engagement string

const (
	EngagementUnknown Engagement = "unknown"
	EngagementLow     Engagement = "low"
	EngagementMedium  Engagement = "medium"
	EngagementHigh    Engagement = "high"
)

// State is the derived summary of a transcript. It is recomputed for every
// request and never stored.
type State struct {
	Stage         Stage         `json:"stage"`
	TurnCount     int           `json:"turn_count"`
	Topics        []Topic       `json:"topics_discussed"`
	Understanding Understanding `json:"student_understanding"`
	Progression   Progression   `json:"teaching_progression"`
	LastTutorMove TutorMove     `json:"last_tutor_question_type"`
	Engagement    Engagement    `json:"engagement_level"`
}

// HasTopic reports whether topic was discussed
func (s State) HasTopic(topic Topic) bool {
	for _, t := range s.Topics {
		if t == topic {
			return true
		}
	}
	return false
}
