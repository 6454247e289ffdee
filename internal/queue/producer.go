package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/parsons/internal/attempt"
)

// Producer publishes attempts to the attempt queue
type Producer struct {
	conn *Connection
}

var _ attempt.Publisher = (*Producer)(nil)

func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// Publish stamps a missing ID or timestamp and sends the attempt. The
// consumer relies on the ID for idempotent writes.
func (p *Producer) Publish(ctx context.Context, a attempt.Attempt) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now()
	}
	if err := p.conn.PublishJSON(ctx, AttemptQueueName, a); err != nil {
		return fmt.Errorf("publish attempt %s: %w", a.ID, err)
	}
	p.conn.Logger().Debug("published attempt", "attempt_id", a.ID, "problem_id", a.ProblemID, "kind", a.Kind)
	return nil
}
