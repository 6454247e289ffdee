package problem

import (
	"strings"

	"github.com/felixgeelhaar/parsons/internal/domain"
	"github.com/felixgeelhaar/parsons/internal/validation"
)

// js-parsons widget defaults for generated problems
const (
	DefaultSortableID = "sortable"
	DefaultTrashID    = "sortableTrash"
	DefaultGrader     = "ParsonsWidget._graders.LineBasedGrader"
	DefaultXIndent    = 50
	DefaultExecLimit  = 2500
)

// GenerateOptions tunes problem generation
type GenerateOptions struct {
	// Distractors appends decoy lines tagged with the distractor marker
	Distractors bool

	// Seed shuffles the distractors before capping. Nil keeps generation
	// order.
	Seed *uint64

	// MaxDistractors overrides the min(blocks+2, 10) cap when positive
	MaxDistractors int
}

// Generate builds widget settings from Python source
func Generate(source string, opts GenerateOptions) domain.ParsonsSettings {
	blocks := Blocks(source)

	var distractors []string
	if opts.Distractors {
		distractors = Distractors(blocks, opts)
	}

	initial := strings.Join(blocks, "\n")
	if len(distractors) > 0 {
		tagged := make([]string, len(distractors))
		for i, d := range distractors {
			tagged[i] = d + " " + validation.DistractorMarker
		}
		initial += "\n" + strings.Join(tagged, "\n")
	}

	return domain.ParsonsSettings{
		Initial: initial,
		Options: domain.ParsonsOptions{
			SortableID:    DefaultSortableID,
			TrashID:       DefaultTrashID,
			MaxWrongLines: domain.IntPtr(len(distractors)),
			Grader:        DefaultGrader,
			CanIndent:     domain.BoolPtr(true),
			XIndent:       domain.IntPtr(DefaultXIndent),
			ExecLimit:     domain.IntPtr(DefaultExecLimit),
			FeedbackCB:    domain.BoolPtr(true),
			ShowFeedback:  domain.BoolPtr(true),
		},
	}
}

// Blocks splits source into logical blocks. Blank and comment lines are
// dropped and a new block starts wherever indentation decreases.
func Blocks(source string) []string {
	var blocks []string
	var current []string
	level := 0

	for _, raw := range strings.Split(source, "\n") {
		raw = strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		indent := validation.ParseLine(raw).Indent
		if indent < level && len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, raw)
		level = indent
	}
	if len(current) > 0 {
		blocks = append(blocks, strings.Join(current, "\n"))
	}
	return blocks
}
