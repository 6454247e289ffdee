package problem

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

const maxDistractorCap = 10

type replacement struct {
	from string
	to   []string
}

var variableSwaps = []replacement{
	{"i", []string{"j", "k", "index"}},
	{"j", []string{"i", "k", "index"}},
	{"x", []string{"y", "val", "value"}},
	{"y", []string{"x", "val", "value"}},
	{"data", []string{"values", "items", "records"}},
	{"result", []string{"output", "results", "ret"}},
	{"list", []string{"lst", "array", "items"}},
	{"dict", []string{"map", "dictionary", "table"}},
	{"string", []string{"str", "text", "word"}},
	{"count", []string{"total", "sum", "counter"}},
	{"value", []string{"val", "item", "element"}},
}

// operatorSwaps are applied as substring replacements, except keyword
// operators which must match whole words
var operatorSwaps = []replacement{
	{"==", []string{"!=", ">=", "<="}},
	{"!=", []string{"==", ">=", "<="}},
	{">", []string{"<", ">=", "=="}},
	{"<", []string{">", "<=", "=="}},
	{">=", []string{"<=", ">", "=="}},
	{"<=", []string{">=", "<", "=="}},
	{"+", []string{"-", "*", "/"}},
	{"-", []string{"+", "*", "/"}},
	{"*", []string{"+", "-", "/"}},
	{"/", []string{"*", "+", "-"}},
	{"+=", []string{"-=", "*=", "="}},
	{"-=", []string{"+=", "*=", "="}},
	{"and", []string{"or", "not"}},
	{"or", []string{"and", "not"}},
	{"in", []string{"not in"}},
	{"not in", []string{"in"}},
}

var (
	controlLine = regexp.MustCompile(`(if|for|while|def|class|with|try|except|finally).*:$`)
	numberToken = regexp.MustCompile(`\b\d+\b`)
	callExpr    = regexp.MustCompile(`(\w+)\((.*?)\)`)
	wordPattern = map[string]*regexp.Regexp{}
)

func init() {
	for _, r := range variableSwaps {
		wordPattern[r.from] = regexp.MustCompile(`\b` + regexp.QuoteMeta(r.from) + `\b`)
	}
	for _, r := range operatorSwaps {
		if isWord(r.from) {
			wordPattern[r.from] = regexp.MustCompile(`\b` + regexp.QuoteMeta(r.from) + `\b`)
		}
	}
}

// distractorSet collects unique candidates in insertion order
type distractorSet struct {
	items []string
	seen  map[string]struct{}
}

func (s *distractorSet) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if _, ok := s.seen[line]; ok {
		return
	}
	s.seen[line] = struct{}{}
	s.items = append(s.items, line)
}

// Distractors derives plausible wrong lines from blocks. Candidates equal
// to a real line are excluded and the result is capped at
// min(len(blocks)+2, 10) unless opts overrides it.
func Distractors(blocks []string, opts GenerateOptions) []string {
	set := &distractorSet{seen: make(map[string]struct{})}

	var real []string
	for _, block := range blocks {
		for _, raw := range strings.Split(block, "\n") {
			if line := strings.TrimSpace(raw); line != "" && !strings.HasPrefix(line, "#") {
				real = append(real, line)
			}
		}
	}
	for _, line := range real {
		set.seen[line] = struct{}{}
	}

	for _, line := range real {
		if controlLine.MatchString(line) {
			set.add(strings.ReplaceAll(line, ":", ""))
		}
		for _, r := range variableSwaps {
			re := wordPattern[r.from]
			if !re.MatchString(line) {
				continue
			}
			for _, to := range r.to {
				set.add(re.ReplaceAllLiteralString(line, to))
			}
		}
		for _, r := range operatorSwaps {
			for _, to := range r.to {
				if re, ok := wordPattern[r.from]; ok {
					if re.MatchString(line) {
						set.add(re.ReplaceAllLiteralString(line, to))
					}
				} else if strings.Contains(line, r.from) {
					set.add(strings.ReplaceAll(line, r.from, to))
				}
			}
		}
		for _, loc := range numberToken.FindAllStringIndex(line, -1) {
			n, err := strconv.Atoi(line[loc[0]:loc[1]])
			if err != nil {
				continue
			}
			set.add(line[:loc[0]] + strconv.Itoa(n+1) + line[loc[1]:])
			set.add(line[:loc[0]] + strconv.Itoa(n-1) + line[loc[1]:])
		}
		if m := callExpr.FindStringSubmatchIndex(line); m != nil {
			name, args := line[m[2]:m[3]], line[m[4]:m[5]]
			if parts := strings.Split(args, ","); strings.TrimSpace(parts[0]) != "" {
				rest := make([]string, 0, len(parts)-1)
				for _, p := range parts[1:] {
					rest = append(rest, strings.TrimSpace(p))
				}
				set.add(line[:m[0]] + name + "(" + strings.Join(rest, ", ") + ")" + line[m[1]:])
			}
		}
	}

	out := set.items
	if opts.Seed != nil {
		rng := rand.New(rand.NewPCG(*opts.Seed, *opts.Seed>>1|1))
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}

	limit := min(len(blocks)+2, maxDistractorCap)
	if opts.MaxDistractors > 0 {
		limit = opts.MaxDistractors
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func isWord(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != ' ' {
			return false
		}
	}
	return true
}
