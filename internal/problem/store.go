// Package problem creates and serves Parsons problems.
package problem

import (
	"context"

	"github.com/felixgeelhaar/parsons/internal/domain"
)

// Store persists problems. Get and Delete return domain.ErrProblemNotFound
// for unknown ids.
type Store interface {
	List(ctx context.Context) ([]*domain.Problem, error)
	Get(ctx context.Context, id string) (*domain.Problem, error)
	Save(ctx context.Context, p *domain.Problem) error
	Delete(ctx context.Context, id string) error
}
