package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/parsons/internal/domain"
	"github.com/felixgeelhaar/parsons/internal/problem"
)

// ProblemStore implements problem persistence using PostgreSQL
type ProblemStore struct {
	pool *pgxpool.Pool
}

// NewProblemStore creates a new PostgreSQL problem store
func NewProblemStore(pool *pgxpool.Pool) *ProblemStore {
	return &ProblemStore{pool: pool}
}

const problemColumns = `id, title, description, difficulty, tags, settings, created_at, updated_at`

// List returns all problems in insertion order
func (s *ProblemStore) List(ctx context.Context) ([]*domain.Problem, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+problemColumns+` FROM problems ORDER BY seq`)
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
	p, err := scanProblem(s.pool.QueryRow(ctx, `SELECT `+problemColumns+` FROM problems WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProblemNotFound
	}
	return p, err
}

// Save inserts or updates a problem
func (s *ProblemStore) Save(ctx context.Context, p *domain.Problem) error {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	settings, err := json.Marshal(p.ParsonsSettings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	query := `
		INSERT INTO problems (` + problemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			difficulty = EXCLUDED.difficulty,
			tags = EXCLUDED.tags,
			settings = EXCLUDED.settings,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.pool.Exec(ctx, query,
		p.ID, p.Title, p.Description, string(p.Difficulty),
		tags, settings, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert problem: %w", err)
	}
	return nil
}

// Delete removes a problem
func (s *ProblemStore) Delete(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM problems WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete problem: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrProblemNotFound
	}
	return nil
}

func scanProblem(row pgx.Row) (*domain.Problem, error) {
	var p domain.Problem
	var difficulty string
	var tags, settings []byte
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &difficulty, &tags, &settings, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan problem: %w", err)
	}
	p.Difficulty = domain.Difficulty(difficulty)
	if err := json.Unmarshal(tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags of %s: %w", p.ID, err)
	}
	if err := json.Unmarshal(settings, &p.ParsonsSettings); err != nil {
		return nil, fmt.Errorf("unmarshal settings of %s: %w", p.ID, err)
	}
	return &p, nil
}

var _ problem.Store = (*ProblemStore)(nil)
