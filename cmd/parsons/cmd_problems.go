package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/felixgeelhaar/parsons/internal/app"
	"github.com/felixgeelhaar/parsons/internal/attempt"
	"github.com/felixgeelhaar/parsons/internal/config"
	"github.com/felixgeelhaar/parsons/internal/domain"
	"github.com/felixgeelhaar/parsons/internal/validation"
)

// withApp opens the configured stores for one command. Logs go to stderr
// at warn so stdout stays readable.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if _, err := config.EnsureParsonsDir(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	a, err := app.New(ctx, cfg, app.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// cmdProblems manages the problem collection
func cmdProblems(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Problem commands:

  parsons problems list              List stored problems
  parsons problems show <id>         Show problem details
  parsons problems generate <file>   Create a problem from annotated source
  parsons problems delete <id>       Delete a problem`)
		return nil
	}

	switch args[0] {
	case "list":
		return withApp(func(ctx context.Context, a *app.App) error {
			return listProblems(ctx, a, os.Stdout)
		})
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("problem ID required")
		}
		return withApp(func(ctx context.Context, a *app.App) error {
			p, err := a.Problems.Get(ctx, args[1])
			if err != nil {
				return err
			}
			printProblem(os.Stdout, p)
			return nil
		})
	case "generate":
		if len(args) < 2 {
			return fmt.Errorf("source file required (use - for stdin)")
		}
		source, err := readSource(args[1])
		if err != nil {
			return err
		}
		return withApp(func(ctx context.Context, a *app.App) error {
			p, err := a.Problems.Generate(ctx, source)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Created problem %s\n\n", p.ID)
			printProblem(os.Stdout, p)
			return nil
		})
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("problem ID required")
		}
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := a.Problems.Delete(ctx, args[1]); err != nil {
				return err
			}
			fmt.Printf("✓ Deleted problem %s\n", args[1])
			return nil
		})
	default:
		return fmt.Errorf("unknown problems command: %s", args[0])
	}
}

func listProblems(ctx context.Context, a *app.App, w io.Writer) error {
	problems, err := a.Problems.List(ctx)
	if err != nil {
		return err
	}
	if len(problems) == 0 {
		fmt.Fprintln(w, "No problems yet. Create one with 'parsons problems generate <file>'.")
		return nil
	}

	fmt.Fprintln(w, "Problems:")
	for _, p := range problems {
		fmt.Fprintf(w, "  %-24s %-8s %s\n", p.ID, p.Difficulty, p.Title)
	}
	return nil
}

func printProblem(w io.Writer, p *domain.Problem) {
	canonical := validation.ExtractCanonical(p.ParsonsSettings.Initial)

	fmt.Fprintf(w, "Problem: %s\n\n", p.Title)
	fmt.Fprintf(w, "ID:         %s\n", p.ID)
	fmt.Fprintf(w, "Difficulty: %s\n", p.Difficulty)
	fmt.Fprintf(w, "Tags:       %s\n", strings.Join(p.Tags, ", "))
	fmt.Fprintf(w, "Blocks:     %d (+%d distractors)\n", len(canonical), distractorCount(p.ParsonsSettings.Initial))
	if p.Description != "" {
		fmt.Fprintf(w, "\nDescription:\n%s\n", p.Description)
	}
}

func distractorCount(initial string) int {
	n := 0
	for _, line := range strings.Split(initial, "\n") {
		if strings.HasSuffix(strings.TrimRight(line, " \t"), validation.DistractorMarker) {
			n++
		}
	}
	return n
}

// readSource reads path, or stdin for "-"
func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return string(data), nil
}

// readArrangement reads one block per line, keeping indentation
func readArrangement(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	return lines, scanner.Err()
}

// cmdValidate checks an arrangement file against a problem
func cmdValidate(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: parsons validate <problem-id> <file|->")
	}

	in := io.Reader(os.Stdin)
	if args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("open arrangement: %w", err)
		}
		defer f.Close()
		in = f
	}
	lines, err := readArrangement(in)
	if err != nil {
		return fmt.Errorf("read arrangement: %w", err)
	}

	return withApp(func(ctx context.Context, a *app.App) error {
		p, err := a.Problems.Get(ctx, args[0])
		if err != nil {
			return err
		}
		v, err := a.Tutor.Validate(p, lines, nil)
		if err != nil {
			return err
		}
		printVerdict(os.Stdout, v)

		if v.IsCorrect || !v.HasSolution {
			return nil
		}
		fb, err := a.Tutor.Feedback(ctx, p, lines)
		if err != nil {
			return err
		}
		fmt.Printf("\nFeedback (%s):\n%s\n", fb.Source, fb.Feedback)
		return nil
	})
}

func printVerdict(w io.Writer, v *validation.Verdict) {
	mark := "✗"
	if v.IsCorrect {
		mark = "✓"
	}
	fmt.Fprintf(w, "%s %s\n", mark, v.Details)
	fmt.Fprintf(w, "Lines: %d of %d %s\n", v.SolutionLength, v.ExpectedLength, renderProgressBar(v.CompletionRatio, 20))
	for _, issue := range v.SpecificIssues {
		fmt.Fprintf(w, "  - %s\n", issue)
	}
	if cmp := v.Comparison; cmp != nil && !cmp.IsCorrect {
		if cmp.FirstErrorPosition != nil {
			fmt.Fprintf(w, "  - First difference at line %d\n", *cmp.FirstErrorPosition+1)
		}
		if len(cmp.MissingLines) > 0 {
			fmt.Fprintf(w, "  - %d expected line(s) missing\n", len(cmp.MissingLines))
		}
		if len(cmp.ExtraLines) > 0 {
			fmt.Fprintf(w, "  - %d line(s) do not belong\n", len(cmp.ExtraLines))
		}
	}
}

// cmdStats shows attempt statistics for a problem
func cmdStats(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("problem ID required")
	}
	return withApp(func(ctx context.Context, a *app.App) error {
		if a.Attempts == nil {
			return fmt.Errorf("attempt statistics are disabled (events.enabled: false)")
		}
		p, err := a.Problems.Get(ctx, args[0])
		if err != nil {
			return err
		}
		st, err := a.Attempts.Stats(ctx, p.ID)
		if err != nil {
			return err
		}
		printStats(os.Stdout, p, st)
		return nil
	})
}

func printStats(w io.Writer, p *domain.Problem, st *attempt.Stats) {
	fmt.Fprintf(w, "Attempt Statistics: %s\n", p.Title)
	fmt.Fprintln(w, "==================")
	if st.Attempts == 0 {
		fmt.Fprintln(w, "No attempts recorded yet.")
		return
	}

	ratio := float64(st.CorrectAttempts) / float64(st.Attempts)
	fmt.Fprintf(w, "Attempts:  %d\n", st.Attempts)
	fmt.Fprintf(w, "Correct:   %d %s %.0f%%\n", st.CorrectAttempts, renderProgressBar(ratio, 20), ratio*100)
	if st.LastAttemptAt != nil {
		fmt.Fprintf(w, "Last:      %s\n", st.LastAttemptAt.Local().Format(time.DateTime))
	}

	kinds := make([]string, 0, len(st.ByKind))
	for k := range st.ByKind {
		kinds = append(kinds, string(k))
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-10s %d\n", k, st.ByKind[attempt.Kind(k)])
	}
}
