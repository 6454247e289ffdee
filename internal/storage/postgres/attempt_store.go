package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/parsons/internal/attempt"
)

// AttemptStore records attempts using PostgreSQL
type AttemptStore struct {
	pool *pgxpool.Pool
}

// NewAttemptStore creates a new PostgreSQL attempt store
func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

// Record stores an attempt, ignoring duplicates of the same id
func (s *AttemptStore) Record(ctx context.Context, a attempt.Attempt) error {
	occurred := a.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	query := `
		INSERT INTO attempts (id, problem_id, kind, correct, source, strategy, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query,
		a.ID, a.ProblemID, string(a.Kind), a.Correct, a.Source, a.Strategy, occurred,
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

	var last *time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE correct), MAX(occurred_at)
		FROM attempts WHERE problem_id = $1`, problemID,
	).Scan(&stats.Attempts, &stats.CorrectAttempts, &last)
	if err != nil {
		return nil, fmt.Errorf("query attempt totals: %w", err)
	}
	if last != nil {
		t := last.UTC()
		stats.LastAttemptAt = &t
	}

	rows, err := s.pool.Query(ctx, `
		SELECT kind, COUNT(*) FROM attempts WHERE problem_id = $1 GROUP BY kind`, problemID)
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
