package sqlite

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/parsons/internal/domain"
)

func sampleProblem(id string) *domain.Problem {
	return &domain.Problem{
		ID:          id,
		Title:       "Sum a list",
		Description: "Add up the numbers",
		Difficulty:  domain.DifficultyEasy,
		Tags:        []string{"python", "loops"},
		ParsonsSettings: domain.ParsonsSettings{
			Initial: "total = 0\nfor n in nums:\n    total += n",
			Options: domain.ParsonsOptions{SortableID: "sortable", CanIndent: domain.BoolPtr(true), MaxWrongLines: domain.IntPtr(0)},
		},
		CreatedAt: "2026-01-01T00:00:00Z",
		UpdatedAt: "2026-01-01T00:00:00Z",
	}
}

func TestProblemStore_SaveAndGet(t *testing.T) {
	store := NewProblemStore(openTestDB(t))
	ctx := context.Background()

	if err := store.Save(ctx, sampleProblem("p1")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Sum a list" || got.Difficulty != domain.DifficultyEasy || len(got.Tags) != 2 {
		t.Errorf("Get() = %+v", got)
	}
	if got.ParsonsSettings.Initial != sampleProblem("p1").ParsonsSettings.Initial {
		t.Error("initial blob not preserved")
	}
	if got.ParsonsSettings.Options.CanIndent == nil || !*got.ParsonsSettings.Options.CanIndent {
		t.Error("options not preserved")
	}
}

func TestProblemStore_Upsert(t *testing.T) {
	store := NewProblemStore(openTestDB(t))
	ctx := context.Background()

	p := sampleProblem("p1")
	_ = store.Save(ctx, p)
	p.Title = "Renamed"
	p.UpdatedAt = "2026-02-01T00:00:00Z"
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, _ := store.Get(ctx, "p1")
	if got.Title != "Renamed" || got.UpdatedAt != "2026-02-01T00:00:00Z" || got.CreatedAt != "2026-01-01T00:00:00Z" {
		t.Errorf("upsert result = %+v", got)
	}
}

func TestProblemStore_ListOrder(t *testing.T) {
	store := NewProblemStore(openTestDB(t))
	ctx := context.Background()

	empty, err := store.List(ctx)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("List() on empty store = %v, %v", empty, err)
	}

	for _, id := range []string{"c", "a", "b"} {
		_ = store.Save(ctx, sampleProblem(id))
	}
	got, _ := store.List(ctx)
	if len(got) != 3 || got[0].ID != "c" || got[1].ID != "a" || got[2].ID != "b" {
		t.Errorf("List() order = %v, want insertion order", ids(got))
	}
}

func TestProblemStore_NotFound(t *testing.T) {
	store := NewProblemStore(openTestDB(t))
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); err != domain.ErrProblemNotFound {
		t.Errorf("Get() error = %v", err)
	}
	if err := store.Delete(ctx, "missing"); err != domain.ErrProblemNotFound {
		t.Errorf("Delete() error = %v", err)
	}

	_ = store.Save(ctx, sampleProblem("p1"))
	if err := store.Delete(ctx, "p1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "p1"); err != domain.ErrProblemNotFound {
		t.Errorf("Get() after delete error = %v", err)
	}
}

func ids(ps []*domain.Problem) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
