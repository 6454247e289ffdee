package validation

import (
	"fmt"
	"log/slog"
	"slices"
)

// OrderIssueDescription is attached to every detected order inversion
const OrderIssueDescription = "Line appears before it should"

// ComparisonResult describes how a submission differs from the canonical
// solution. It is a derived value and never persisted.
type ComparisonResult struct {
	IsCorrect bool `json:"isCorrect"`

	SubmittedLength int `json:"solutionLength"`
	ExpectedLength  int `json:"expectedLength"`
	// LengthDelta is submitted minus expected: negative means lines are
	// missing, positive means extra lines were placed.
	LengthDelta  int `json:"lengthDelta"`
	MatchedCount int `json:"matchedCount"`
	MissingCount int `json:"missingCount"`
	ExtraCount   int `json:"extraCount"`

	MatchingLines      []LineMatch           `json:"matchingLines"`
	MissingLines       []string              `json:"missingLines"`
	ExtraLines         []string              `json:"extraLines"`
	OrderIssues        []OrderIssue          `json:"orderIssues"`
	IndentationErrors  []IndentationMismatch `json:"indentationErrors"`
	SpecificIssues     []string              `json:"specificIssues"`
	FirstErrorPosition *int                  `json:"firstErrorPosition"`
}

// LineMatch pairs a submitted line with the first canonical line of equal
// trimmed content
type LineMatch struct {
	UserPos    int    `json:"user_pos"`
	CorrectPos int    `json:"correct_pos"`
	Content    string `json:"content"`
}

// OrderIssue records a submitted line that maps to an earlier canonical
// position than the matched line before it
type OrderIssue struct {
	UserPos     int    `json:"user_pos"`
	ExpectedPos int    `json:"expected_pos"`
	Description string `json:"description"`
}

// IndentationMismatch is a position where content matches but indentation
// does not. Levels are whitespace/IndentWidth; spaces are raw counts.
type IndentationMismatch struct {
	Position       int    `json:"line_index"`
	ExpectedIndent int    `json:"correct_indent"`
	ActualIndent   int    `json:"user_indent"`
	ExpectedSpaces int    `json:"correct_spaces"`
	ActualSpaces   int    `json:"user_spaces"`
	Content        string `json:"line_content"`
}

// HasIndentationIssues reports whether any indentation mismatch was found
func (r ComparisonResult) HasIndentationIssues() bool {
	return len(r.IndentationErrors) > 0
}

// HasErrors reports whether the comparison classified any kind of error
func (r ComparisonResult) HasErrors() bool {
	if r.IsCorrect {
		return false
	}
	return r.LengthDelta != 0 ||
		r.FirstErrorPosition != nil ||
		len(r.OrderIssues) > 0 ||
		len(r.IndentationErrors) > 0 ||
		len(r.MissingLines) > 0 ||
		len(r.ExtraLines) > 0
}

// Compare checks raw submitted lines against the canonical solution. It
// never panics: an internal fault yields a not-correct result without
// detail.
func Compare(canonical []Line, submitted []string) (result ComparisonResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("comparator fault recovered", "panic", r)
			result = ComparisonResult{
				ExpectedLength: len(canonical),
				LengthDelta:    len(submitted) - len(canonical),
			}
		}
	}()
	return CompareLines(canonical, CleanSubmission(submitted))
}

// CompareLines compares an already cleaned submission
func CompareLines(canonical, user []Line) ComparisonResult {
	result := ComparisonResult{
		SubmittedLength: len(user),
		ExpectedLength:  len(canonical),
		LengthDelta:     len(user) - len(canonical),
	}
	if result.LengthDelta < 0 {
		result.MissingCount = -result.LengthDelta
	} else {
		result.ExtraCount = result.LengthDelta
	}

	n := min(len(user), len(canonical))

	for i := 0; i < n; i++ {
		if user[i].Content != canonical[i].Content {
			pos := i
			result.FirstErrorPosition = &pos
			break
		}
	}

	// Indentation is checked wherever content lines up, including past the
	// first content divergence.
	for i := 0; i < n; i++ {
		u, c := user[i], canonical[i]
		if u.Content != c.Content || u.Indent == c.Indent {
			continue
		}
		result.IndentationErrors = append(result.IndentationErrors, IndentationMismatch{
			Position:       i,
			ExpectedIndent: c.Indent,
			ActualIndent:   u.Indent,
			ExpectedSpaces: c.Spaces,
			ActualSpaces:   u.Spaces,
			Content:        u.Content,
		})
		result.SpecificIssues = append(result.SpecificIssues,
			fmt.Sprintf("Line %d: Expected %d spaces, got %d spaces", i+1, c.Spaces, u.Spaces))
	}

	result.IsCorrect = result.LengthDelta == 0 &&
		result.FirstErrorPosition == nil &&
		len(result.IndentationErrors) == 0

	firstIndex := make(map[string]int, len(canonical))
	for j, c := range canonical {
		if _, ok := firstIndex[c.Content]; !ok {
			firstIndex[c.Content] = j
		}
	}
	for i, u := range user {
		if j, ok := firstIndex[u.Content]; ok {
			result.MatchingLines = append(result.MatchingLines, LineMatch{
				UserPos:    i,
				CorrectPos: j,
				Content:    u.Content,
			})
		}
	}
	result.MatchedCount = len(result.MatchingLines)

	// MatchingLines is already in submission order.
	for i := 1; i < len(result.MatchingLines); i++ {
		prev, cur := result.MatchingLines[i-1], result.MatchingLines[i]
		if cur.CorrectPos < prev.CorrectPos {
			result.OrderIssues = append(result.OrderIssues, OrderIssue{
				UserPos:     cur.UserPos,
				ExpectedPos: cur.CorrectPos,
				Description: OrderIssueDescription,
			})
		}
	}

	result.MissingLines = setDifference(Contents(canonical), Contents(user))
	result.ExtraLines = setDifference(Contents(user), Contents(canonical))

	return result
}

// setDifference returns the sorted distinct members of a not present in b
func setDifference(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, s := range b {
		exclude[s] = struct{}{}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, s := range a {
		if _, skip := exclude[s]; skip {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}
