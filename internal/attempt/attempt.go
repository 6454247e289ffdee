// Package attempt records learner activity on problems and aggregates it
// into per-problem statistics.
package attempt

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/parsons/internal/domain"
)

// Kind is the activity an attempt records
type Kind string

const (
	KindValidate Kind = "validate"
	KindFeedback Kind = "feedback"
	KindChat     Kind = "chat"
)

// Attempt is one recorded interaction with a problem
type Attempt struct {
	ID         uuid.UUID `json:"id"`
	ProblemID  string    `json:"problem_id"`
	Kind       Kind      `json:"kind"`
	Correct    *bool     `json:"correct,omitempty"`
	Source     string    `json:"source,omitempty"`
	Strategy   string    `json:"strategy,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Stats aggregates the attempts on one problem
type Stats struct {
	ProblemID       string       `json:"problemId"`
	Attempts        int          `json:"attempts"`
	CorrectAttempts int          `json:"correctAttempts"`
	LastAttemptAt   *time.Time   `json:"lastAttemptAt"`
	ByKind          map[Kind]int `json:"byKind"`
}

// Store persists attempts. Stats for a problem without attempts is a zero
// Stats, not an error.
type Store interface {
	Record(ctx context.Context, a Attempt) error
	Stats(ctx context.Context, problemID string) (*Stats, error)
}

// FromEvent converts a domain event into an attempt. It reports false for
// events that are not attempts.
func FromEvent(e domain.Event) (Attempt, bool) {
	a := Attempt{
		ID:         e.EventID(),
		ProblemID:  e.ProblemID(),
		OccurredAt: e.OccurredAt(),
	}
	switch ev := e.(type) {
	case domain.SolutionValidatedEvent:
		a.Kind = KindValidate
		a.Correct = domain.BoolPtr(ev.IsCorrect)
	case domain.FeedbackGeneratedEvent:
		a.Kind = KindFeedback
		a.Source = ev.Source
	case domain.ChatRepliedEvent:
		a.Kind = KindChat
		a.Source = ev.Source
		a.Strategy = ev.Strategy
		a.Correct = ev.IsCorrect
	default:
		return Attempt{}, false
	}
	return a, true
}
