package domain

import "time"

// Problem is a stored Parsons exercise
type Problem struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Difficulty      Difficulty      `json:"difficulty"`
	Tags            []string        `json:"tags"`
	ParsonsSettings ParsonsSettings `json:"parsonsSettings"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	UpdatedAt       string          `json:"updatedAt,omitempty"`
}

// ParsonsSettings is the js-parsons widget configuration. Initial holds the
// annotated source blob the canonical solution is derived from.
type ParsonsSettings struct {
	Initial string         `json:"initial"`
	Options ParsonsOptions `json:"options"`
}

// ParsonsOptions mirrors the js-parsons option object. Every field is
// optional on the wire.
type ParsonsOptions struct {
	SortableID          string           `json:"sortableId,omitempty"`
	TrashID             string           `json:"trashId,omitempty"`
	MaxWrongLines       *int             `json:"max_wrong_lines,omitempty"`
	CanIndent           *bool            `json:"can_indent,omitempty"`
	VarTests            []map[string]any `json:"vartests,omitempty"`
	Grader              string           `json:"grader,omitempty"`
	ExecutableCode      string           `json:"executable_code,omitempty"`
	ProgrammingLang     string           `json:"programmingLang,omitempty"`
	UnitTests           string           `json:"unittests,omitempty"`
	XIndent             *int             `json:"x_indent,omitempty"`
	ExecLimit           *int             `json:"exec_limit,omitempty"`
	UnitTestCodePrepend string           `json:"unittest_code_prepend,omitempty"`
	FeedbackCB          *bool            `json:"feedback_cb,omitempty"`
	ShowFeedback        *bool            `json:"show_feedback,omitempty"`
	Lang                string           `json:"lang,omitempty"`
}

// Difficulty is a free-form difficulty label ("easy", "medium", "hard")
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Touch sets UpdatedAt, and CreatedAt when it is still empty
func (p *Problem) Touch(now time.Time) {
	ts := now.UTC().Format(time.RFC3339)
	if p.CreatedAt == "" {
		p.CreatedAt = ts
	}
	p.UpdatedAt = ts
}

// Clone returns a deep copy so callers can't mutate stored state
func (p *Problem) Clone() *Problem {
	if p == nil {
		return nil
	}
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	if p.ParsonsSettings.Options.VarTests != nil {
		c.ParsonsSettings.Options.VarTests = append([]map[string]any(nil), p.ParsonsSettings.Options.VarTests...)
	}
	return &c
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int { return &v }

// BoolPtr returns a pointer to v
func BoolPtr(v bool) *bool { return &v }
