package domain

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is something that happened to a problem during a tutoring request
type Event interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	ProblemID() string
}

// Event type names
const (
	EventSolutionValidated = "solution.validated"
	EventFeedbackGenerated = "feedback.generated"
	EventChatReplied       = "chat.replied"
)

// AnyEvent subscribes a handler to every event type
const AnyEvent = "*"

// BaseEvent carries the fields shared by every event
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Problem   string    `json:"problem_id"`
}

func NewBaseEvent(eventType, problemID string) BaseEvent {
	return BaseEvent{ID: uuid.New(), Type: eventType, Timestamp: time.Now(), Problem: problemID}
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) ProblemID() string     { return e.Problem }

// EventHandler processes domain events
type EventHandler func(event Event)

// EventDispatcher fans events out to subscribers synchronously, in
// subscription order. Type-specific handlers run before AnyEvent handlers.
type EventDispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{handlers: make(map[string][]EventHandler)}
}

// Subscribe registers handler for eventType, or for all events with AnyEvent
func (d *EventDispatcher) Subscribe(eventType string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// SubscribeAll is Subscribe(AnyEvent, handler)
func (d *EventDispatcher) SubscribeAll(handler EventHandler) {
	d.Subscribe(AnyEvent, handler)
}

// Publish delivers event to its subscribers. A panicking handler is logged
// and does not stop delivery to the rest. A nil dispatcher drops the event.
func (d *EventDispatcher) Publish(event Event) {
	if d == nil {
		return
	}
	d.mu.RLock()
	targets := slices.Concat(d.handlers[event.EventType()], d.handlers[AnyEvent])
	d.mu.RUnlock()

	for _, h := range targets {
		deliver(h, event)
	}
}

func deliver(h EventHandler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked", "type", event.EventType(), "event_id", event.EventID(), "panic", r)
		}
	}()
	h(event)
}

// SolutionValidatedEvent is published after a submission is checked
type SolutionValidatedEvent struct {
	BaseEvent
	IsCorrect      bool `json:"is_correct"`
	SolutionLength int  `json:"solution_length"`
	ExpectedLength int  `json:"expected_length"`
	IndentIssues   int  `json:"indent_issues"`
}

func NewSolutionValidatedEvent(problemID string, correct bool, solutionLen, expectedLen, indentIssues int) SolutionValidatedEvent {
	return SolutionValidatedEvent{
		BaseEvent:      NewBaseEvent(EventSolutionValidated, problemID),
		IsCorrect:      correct,
		SolutionLength: solutionLen,
		ExpectedLength: expectedLen,
		IndentIssues:   indentIssues,
	}
}

// FeedbackGeneratedEvent is published after one-shot feedback is produced
type FeedbackGeneratedEvent struct {
	BaseEvent
	Source string `json:"source"` // provider name or "fallback"
}

func NewFeedbackGeneratedEvent(problemID, source string) FeedbackGeneratedEvent {
	return FeedbackGeneratedEvent{
		BaseEvent: NewBaseEvent(EventFeedbackGenerated, problemID),
		Source:    source,
	}
}

// ChatRepliedEvent is published after a conversational reply is produced
type ChatRepliedEvent struct {
	BaseEvent
	Source    string `json:"source"`
	Strategy  string `json:"strategy"`
	Stage     string `json:"stage"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

func NewChatRepliedEvent(problemID, source, strategy, stage string, correct *bool) ChatRepliedEvent {
	return ChatRepliedEvent{
		BaseEvent: NewBaseEvent(EventChatReplied, problemID),
		Source:    source,
		Strategy:  strategy,
		Stage:     stage,
		IsCorrect: correct,
	}
}
