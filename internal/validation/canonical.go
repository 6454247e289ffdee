// Package validation reconstructs canonical Parsons solutions and compares
// learner submissions against them.
package validation

import (
	"strings"
	"unicode"
)

// IndentWidth is the number of leading columns per indent level. A tab
// advances to the next multiple of IndentWidth.
const IndentWidth = 4

// DistractorMarker tags lines of the source blob that are decoys
const DistractorMarker = "#distractor"

// Line is a single code line with its indentation measured
type Line struct {
	Raw     string `json:"raw"`
	Content string `json:"content"` // trimmed
	Spaces  int    `json:"spaces"`  // leading whitespace columns, tabs expanded
	Indent  int    `json:"indent"`  // Spaces / IndentWidth
}

// ParseLine measures the indentation of raw
func ParseLine(raw string) Line {
	rest := strings.TrimLeftFunc(raw, unicode.IsSpace)
	spaces := 0
	for _, r := range raw[:len(raw)-len(rest)] {
		if r == '\t' {
			spaces += IndentWidth - spaces%IndentWidth
			continue
		}
		spaces++
	}
	return Line{
		Raw:     raw,
		Content: strings.TrimSpace(raw),
		Spaces:  spaces,
		Indent:  spaces / IndentWidth,
	}
}

// ExtractCanonical builds the canonical solution from a problem's initial
// blob. Blank lines and lines carrying the distractor marker are dropped;
// indentation is preserved.
func ExtractCanonical(initial string) []Line {
	var lines []Line
	for _, raw := range strings.Split(initial, "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if strings.Contains(raw, DistractorMarker) {
			continue
		}
		lines = append(lines, ParseLine(raw))
	}
	return lines
}

// CleanSubmission drops blank lines from a submission, keeping indentation
func CleanSubmission(submitted []string) []Line {
	lines := make([]Line, 0, len(submitted))
	for _, raw := range submitted {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		lines = append(lines, ParseLine(raw))
	}
	return lines
}

// RawLines returns the raw text of lines
func RawLines(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Raw
	}
	return out
}

// Contents returns the trimmed text of lines
func Contents(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Content
	}
	return out
}
