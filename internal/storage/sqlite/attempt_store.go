package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/parsons/internal/attempt"
)

// AttemptStore records attempts backed by SQLite
type AttemptStore struct {
	db *DB
}

// NewAttemptStore creates a new SQLite-backed attempt store
func NewAttemptStore(db *DB) *AttemptStore {
	return &AttemptStore{db: db}
}

// Record stores an attempt. Recording the same attempt id twice is a no-op,
// so redelivered broker messages are not counted again.
func (s *AttemptStore) Record(ctx context.Context, a attempt.Attempt) error {
	var correct *int
	if a.Correct != nil {
		v := 0
		if *a.Correct {
			v = 1
		}
		correct = &v
	}
	occurred := a.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO attempts (id, problem_id, kind, correct, source, strategy, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.ProblemID, string(a.Kind), correct, a.Source, a.Strategy, occurred.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// Stats aggregates the attempts on a problem
func (s *AttemptStore) Stats(ctx context.Context, problemID string) (*attempt.Stats, error) {
	stats := &attempt.Stats{
		ProblemID: problemID,
		ByKind:    map[attempt.Kind]int{},
	}

	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN correct = 1 THEN 1 ELSE 0 END), 0), MAX(occurred_at)
		FROM attempts WHERE problem_id = ?`, problemID,
	).Scan(&stats.Attempts, &stats.CorrectAttempts, &last)
	if err != nil {
		return nil, fmt.Errorf("query attempt totals: %w", err)
	}
	if last.Valid {
		t := time.UnixMilli(last.Int64).UTC()
		stats.LastAttemptAt = &t
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM attempts WHERE problem_id = ? GROUP BY kind`, problemID)
	if err != nil {
		return nil, fmt.Errorf("query attempt kinds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan attempt kind: %w", err)
		}
		stats.ByKind[attempt.Kind(kind)] = n
	}
	return stats, rows.Err()
}

var _ attempt.Store = (*AttemptStore)(nil)
