package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/parsons/internal/attempt"
	"github.com/felixgeelhaar/parsons/internal/domain"
)

func TestAttemptStore_Stats(t *testing.T) {
	store := NewAttemptStore(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	attempts := []attempt.Attempt{
		{ID: uuid.New(), ProblemID: "p1", Kind: attempt.KindValidate, Correct: domain.BoolPtr(false), OccurredAt: base},
		{ID: uuid.New(), ProblemID: "p1", Kind: attempt.KindValidate, Correct: domain.BoolPtr(true), OccurredAt: base.Add(time.Minute)},
		{ID: uuid.New(), ProblemID: "p1", Kind: attempt.KindChat, Source: "fallback", OccurredAt: base.Add(2 * time.Minute)},
		{ID: uuid.New(), ProblemID: "p2", Kind: attempt.KindFeedback, OccurredAt: base.Add(time.Hour)},
	}
	for _, a := range attempts {
		if err := store.Record(ctx, a); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	stats, err := store.Stats(ctx, "p1")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Attempts != 3 || stats.CorrectAttempts != 1 {
		t.Errorf("totals = %d/%d, want 3/1", stats.Attempts, stats.CorrectAttempts)
	}
	if stats.ByKind[attempt.KindValidate] != 2 || stats.ByKind[attempt.KindChat] != 1 {
		t.Errorf("ByKind = %v", stats.ByKind)
	}
	if stats.LastAttemptAt == nil || !stats.LastAttemptAt.Equal(base.Add(2*time.Minute)) {
		t.Errorf("LastAttemptAt = %v", stats.LastAttemptAt)
	}
}

func TestAttemptStore_Empty(t *testing.T) {
	stats, err := NewAttemptStore(openTestDB(t)).Stats(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Attempts != 0 || stats.LastAttemptAt != nil || stats.ByKind == nil {
		t.Errorf("Stats() = %+v, want zero stats", stats)
	}
}

func TestAttemptStore_RecordIsIdempotent(t *testing.T) {
	store := NewAttemptStore(openTestDB(t))
	ctx := context.Background()

	a := attempt.Attempt{ID: uuid.New(), ProblemID: "p1", Kind: attempt.KindChat, OccurredAt: time.Now()}
	_ = store.Record(ctx, a)
	_ = store.Record(ctx, a)

	stats, _ := store.Stats(ctx, "p1")
	if stats.Attempts != 1 {
		t.Errorf("Attempts = %d, redelivery must not double count", stats.Attempts)
	}
}
