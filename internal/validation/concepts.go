package validation

import "strings"

// Concept is a programming construct the classifier can detect
type Concept string

const (
	ConceptFunctions    Concept = "functions"
	ConceptLoops        Concept = "loops"
	ConceptConditionals Concept = "conditionals"
	ConceptVariables    Concept = "variables"
	ConceptOutput       Concept = "output"
	ConceptInput        Concept = "input"
	ConceptLists        Concept = "lists"
	ConceptStrings      Concept = "strings"
)

type conceptRule struct {
	concept     Concept
	description string
	keywords    []string
}

// conceptRules is the fixed taxonomy in report order
var conceptRules = []conceptRule{
	{ConceptFunctions, "function definition", []string{"def ", "return"}},
	{ConceptLoops, "iteration/loops", []string{"for ", "while "}},
	{ConceptConditionals, "conditional logic", []string{"if ", "else", "elif"}},
	{ConceptVariables, "variable assignment", []string{"="}},
	{ConceptOutput, "output/printing", []string{"print("}},
	{ConceptInput, "user input", []string{"input("}},
	{ConceptLists, "list operations", []string{"[", "]", ".append", ".extend"}},
	{ConceptStrings, "string handling", []string{"'", `"`, ".format", "f'"}},
}

// Description returns a short human label for the concept
func (c Concept) Description() string {
	for _, r := range conceptRules {
		if r.concept == c {
			return r.description
		}
	}
	return string(c)
}

// ConceptReport lists canonical concepts the submission covers and lacks
type ConceptReport struct {
	Present []Concept `json:"correct_concepts"`
	Missing []Concept `json:"missing_concepts"`
}

// Classify reports which concepts of the canonical solution appear in the
// submission. Concepts absent from the canonical text are never reported.
func Classify(submitted, canonical []string) ConceptReport {
	userText := strings.ToLower(strings.Join(submitted, " "))
	canonicalText := strings.ToLower(strings.Join(canonical, " "))

	report := ConceptReport{
		Present: []Concept{},
		Missing: []Concept{},
	}
	for _, rule := range conceptRules {
		if !containsAny(canonicalText, rule.keywords) {
			continue
		}
		if containsAny(userText, rule.keywords) {
			report.Present = append(report.Present, rule.concept)
		} else {
			report.Missing = append(report.Missing, rule.concept)
		}
	}
	return report
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
