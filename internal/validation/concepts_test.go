package validation

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	canonical := []string{"def total(xs):", "s = 0", "for x in xs:", "s += x", "return s"}

	tests := []struct {
		name        string
		submitted   []string
		wantPresent []Concept
		wantMissing []Concept
	}{
		{
			name:        "all concepts covered",
			submitted:   canonical,
			wantPresent: []Concept{ConceptFunctions, ConceptLoops, ConceptVariables},
			wantMissing: []Concept{},
		},
		{
			name:        "loop missing",
			submitted:   []string{"def total(xs):", "s = 0", "return s"},
			wantPresent: []Concept{ConceptFunctions, ConceptVariables},
			wantMissing: []Concept{ConceptLoops},
		},
		{
			name:        "empty submission",
			submitted:   nil,
			wantPresent: []Concept{},
			wantMissing: []Concept{ConceptFunctions, ConceptLoops, ConceptVariables},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.submitted, canonical)
			if !reflect.DeepEqual(got.Present, tt.wantPresent) {
				t.Errorf("Present = %v, want %v", got.Present, tt.wantPresent)
			}
			if !reflect.DeepEqual(got.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", got.Missing, tt.wantMissing)
			}
		})
	}
}

func TestClassify_NoConceptOutsideCanonical(t *testing.T) {
	canonical := []string{"print('hi')"}
	got := Classify([]string{"while True:", "x = input()"}, canonical)

	allowed := map[Concept]bool{ConceptOutput: true, ConceptStrings: true}
	for _, c := range append(got.Present, got.Missing...) {
		if !allowed[c] {
			t.Errorf("concept %q reported but not present in canonical text", c)
		}
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	got := Classify([]string{"PRINT(1)"}, []string{"print(1)"})
	if len(got.Present) != 1 || got.Present[0] != ConceptOutput {
		t.Errorf("Present = %v, want [output]", got.Present)
	}
}

func TestConceptDescription(t *testing.T) {
	if got := ConceptLoops.Description(); got != "iteration/loops" {
		t.Errorf("Description() = %q", got)
	}
	if got := Concept("recursion").Description(); got != "recursion" {
		t.Errorf("unknown concept Description() = %q", got)
	}
}
