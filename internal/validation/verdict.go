package validation

import (
	"fmt"
)

// Verdict detail messages
const (
	DetailsCorrect    = "Solution is correct!"
	DetailsIncorrect  = "Solution does not match the expected output or has incorrect indentation."
	DetailsNoSolution = "No solution provided"
)

// SolutionContext is a caller-computed validation result. When IsCorrect is
// set it is trusted instead of recomputing.
type SolutionContext struct {
	IsCorrect            *bool                 `json:"isCorrect,omitempty"`
	HasIndentationIssues bool                  `json:"has_indentation_issues,omitempty"`
	Details              string                `json:"details,omitempty"`
	IndentationErrors    []IndentationMismatch `json:"indentation_errors,omitempty"`
	SpecificIssues       []string              `json:"specific_issues,omitempty"`
}

// Trusted reports whether the context carries an explicit correctness flag
func (c *SolutionContext) Trusted() bool {
	return c != nil && c.IsCorrect != nil
}

// Verdict is the full validation outcome for a submission
type Verdict struct {
	IsCorrect            bool                  `json:"isCorrect"`
	Details              string                `json:"details"`
	HasSolution          bool                  `json:"has_solution"`
	SolutionLength       int                   `json:"solution_length"`
	ExpectedLength       int                   `json:"expected_length"`
	IsComplete           bool                  `json:"is_complete"`
	CompletionRatio      float64               `json:"completion_ratio"`
	HasIndentationIssues bool                  `json:"has_indentation_issues"`
	IndentationErrors    []IndentationMismatch `json:"indentation_errors"`
	SpecificIssues       []string              `json:"specific_issues"`

	// Comparison is nil when the verdict was taken from a trusted context
	Comparison *ComparisonResult `json:"comparison,omitempty"`
	Concepts   ConceptReport     `json:"concepts"`
}

// HasErrors reports whether the submission was found wrong. A trusted
// verdict has no comparison, so its flags decide.
func (v *Verdict) HasErrors() bool {
	if v == nil {
		return false
	}
	if v.Comparison != nil {
		return v.Comparison.HasErrors()
	}
	return !v.IsCorrect || v.HasIndentationIssues || len(v.IndentationErrors) > 0
}

// Analysis bundles the derived inputs of one request
type Analysis struct {
	Canonical []Line
	Submitted []Line
	Verdict   *Verdict
}

// Analyze extracts the canonical solution from initial, cleans the
// submission and produces a verdict. A panic inside the pipeline is
// returned as an error.
func Analyze(initial string, submitted []string, sc *SolutionContext) (analysis *Analysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			analysis = nil
			err = fmt.Errorf("validate solution: %v", r)
		}
	}()

	canonical := ExtractCanonical(initial)
	user := CleanSubmission(submitted)

	v := &Verdict{
		HasSolution:       len(user) > 0,
		SolutionLength:    len(user),
		ExpectedLength:    len(canonical),
		IsComplete:        len(user) >= len(canonical),
		CompletionRatio:   CompletionRatio(len(user), len(canonical)),
		IndentationErrors: []IndentationMismatch{},
		SpecificIssues:    []string{},
		Concepts:          Classify(Contents(user), Contents(canonical)),
	}

	if sc.Trusted() {
		v.IsCorrect = *sc.IsCorrect
		v.HasIndentationIssues = sc.HasIndentationIssues
		v.Details = sc.Details
		if sc.IndentationErrors != nil {
			v.IndentationErrors = sc.IndentationErrors
		}
		if sc.SpecificIssues != nil {
			v.SpecificIssues = sc.SpecificIssues
		}
	} else {
		cmp := CompareLines(canonical, user)
		v.Comparison = &cmp
		v.IsCorrect = cmp.IsCorrect
		v.HasIndentationIssues = cmp.HasIndentationIssues()
		if cmp.IndentationErrors != nil {
			v.IndentationErrors = cmp.IndentationErrors
		}
		if cmp.SpecificIssues != nil {
			v.SpecificIssues = cmp.SpecificIssues
		}
		if cmp.IsCorrect {
			v.Details = DetailsCorrect
		} else {
			v.Details = DetailsIncorrect
		}
	}

	return &Analysis{Canonical: canonical, Submitted: user, Verdict: v}, nil
}

// Check validates a submission. An empty submission short-circuits without
// running the comparator.
func Check(initial string, submitted []string, sc *SolutionContext) (*Verdict, error) {
	if len(CleanSubmission(submitted)) == 0 {
		expected := len(ExtractCanonical(initial))
		return &Verdict{
			IsCorrect:         false,
			Details:           DetailsNoSolution,
			ExpectedLength:    expected,
			IndentationErrors: []IndentationMismatch{},
			SpecificIssues:    []string{},
		}, nil
	}
	a, err := Analyze(initial, submitted, sc)
	if err != nil {
		return nil, err
	}
	return a.Verdict, nil
}

// CompletionRatio is submitted / max(expected, 1)
func CompletionRatio(submitted, expected int) float64 {
	return float64(submitted) / float64(max(expected, 1))
}
