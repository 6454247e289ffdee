package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/parsons/internal/domain"
	"github.com/felixgeelhaar/parsons/internal/problem"
)

// ProblemStore implements problem persistence backed by SQLite
type ProblemStore struct {
	db *DB
}

// NewProblemStore creates a new SQLite-backed problem store
func NewProblemStore(db *DB) *ProblemStore {
	return &ProblemStore{db: db}
}

const problemColumns = `id, title, description, difficulty, tags, settings, created_at, updated_at`

// List returns all problems in insertion order
func (s *ProblemStore) List(ctx context.Context) ([]*domain.Problem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+problemColumns+` FROM problems ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query problems: %w", err)
	}
	defer rows.Close()

	problems := []*domain.Problem{}
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, err
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

// Get retrieves a problem by ID
func (s *ProblemStore) Get(ctx context.Context, id string) (*domain.Problem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+problemColumns+` FROM problems WHERE id = ?`, id)
	p, err := scanProblem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProblemNotFound
	}
	return p, err
}

// Save inserts or replaces a problem
func (s *ProblemStore) Save(ctx context.Context, p *domain.Problem) error {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	settings, err := json.Marshal(p.ParsonsSettings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO problems (`+problemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			description=excluded.description,
			difficulty=excluded.difficulty,
			tags=excluded.tags,
			settings=excluded.settings,
			updated_at=excluded.updated_at`,
		p.ID, p.Title, p.Description, string(p.Difficulty),
		string(tags), string(settings), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert problem: %w", err)
	}
	return nil
}

// Delete removes a problem
func (s *ProblemStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM problems WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete problem: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete problem: %w", err)
	}
	if n == 0 {
		return domain.ErrProblemNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProblem(sc scanner) (*domain.Problem, error) {
	var p domain.Problem
	var difficulty, tags, settings string
	if err := sc.Scan(&p.ID, &p.Title, &p.Description, &difficulty, &tags, &settings, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan problem: %w", err)
	}
	p.Difficulty = domain.Difficulty(difficulty)
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags of %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(settings), &p.ParsonsSettings); err != nil {
		return nil, fmt.Errorf("unmarshal settings of %s: %w", p.ID, err)
	}
	return &p, nil
}

var _ problem.Store = (*ProblemStore)(nil)
