package validation

import (
	"testing"
)

const doubleInitial = "def f(x):\n    return x\n    return x * 2 #distractor"

func TestCheck(t *testing.T) {
	tests := []struct {
		name        string
		submitted   []string
		wantCorrect bool
		wantDetails string
		wantIndent  bool
	}{
		{"correct", []string{"def f(x):", "    return x"}, true, DetailsCorrect, false},
		{"missing indent", []string{"def f(x):", "return x"}, false, DetailsIncorrect, true},
		{"distractor used", []string{"def f(x):", "    return x * 2 #distractor"}, false, DetailsIncorrect, false},
		{"empty", []string{}, false, DetailsNoSolution, false},
		{"only blanks", []string{"", "  "}, false, DetailsNoSolution, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Check(doubleInitial, tt.submitted, nil)
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if v.IsCorrect != tt.wantCorrect {
				t.Errorf("IsCorrect = %v, want %v", v.IsCorrect, tt.wantCorrect)
			}
			if v.Details != tt.wantDetails {
				t.Errorf("Details = %q, want %q", v.Details, tt.wantDetails)
			}
			if v.HasIndentationIssues != tt.wantIndent {
				t.Errorf("HasIndentationIssues = %v, want %v", v.HasIndentationIssues, tt.wantIndent)
			}
			if v.ExpectedLength != 2 {
				t.Errorf("ExpectedLength = %d, want 2", v.ExpectedLength)
			}
		})
	}
}

func TestCheck_EmptySkipsComparison(t *testing.T) {
	v, err := Check(doubleInitial, nil, nil)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if v.Comparison != nil {
		t.Error("empty submission should not run the comparator")
	}
	if v.IndentationErrors == nil || v.SpecificIssues == nil {
		t.Error("slices should be empty, not nil")
	}
}

func TestAnalyze_TrustsContext(t *testing.T) {
	correct := true
	sc := &SolutionContext{IsCorrect: &correct, Details: "graded upstream"}

	a, err := Analyze(doubleInitial, []string{"return x"}, sc)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !a.Verdict.IsCorrect {
		t.Error("trusted context should override the comparator")
	}
	if a.Verdict.Details != "graded upstream" {
		t.Errorf("Details = %q", a.Verdict.Details)
	}
	if a.Verdict.Comparison != nil {
		t.Error("Comparison should be nil for a trusted verdict")
	}
}

func TestAnalyze_UntrustedContextRecomputes(t *testing.T) {
	a, err := Analyze(doubleInitial, []string{"def f(x):", "return x"}, &SolutionContext{Details: "ignored"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if a.Verdict.IsCorrect {
		t.Error("expected incorrect")
	}
	if a.Verdict.Comparison == nil {
		t.Fatal("Comparison should be set")
	}
	if got := a.Verdict.IndentationErrors[0]; got.Position != 1 || got.ExpectedIndent != 1 || got.ActualIndent != 0 {
		t.Errorf("IndentationErrors[0] = %+v", got)
	}
}

func TestAnalyze_Completion(t *testing.T) {
	a, err := Analyze(doubleInitial, []string{"def f(x):"}, nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	v := a.Verdict
	if v.IsComplete {
		t.Error("1 of 2 lines should not be complete")
	}
	if v.CompletionRatio != 0.5 {
		t.Errorf("CompletionRatio = %v, want 0.5", v.CompletionRatio)
	}
	if len(a.Canonical) != 2 || len(a.Submitted) != 1 {
		t.Errorf("Canonical/Submitted = %d/%d", len(a.Canonical), len(a.Submitted))
	}
}

func TestCompletionRatio_ZeroExpected(t *testing.T) {
	if got := CompletionRatio(3, 0); got != 3 {
		t.Errorf("CompletionRatio(3, 0) = %v, want 3", got)
	}
}
