// Package evals scores how well an LLM picks Bento tools from natural language.
// Suites pair requests with the expected tool and arguments; a ToolSelector
// (an LLM harness or a file of recorded answers) supplies the actual picks.
package evals

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
)

//go:embed tool_selection.json
var defaultSuite []byte

// Case is one request with the tool an assistant should choose.
type Case struct {
	ID           string         `json:"id"`
	Category     string         `json:"category"`
	Input        string         `json:"input"`
	ExpectedTool string         `json:"expected_tool"`
	ExpectedArgs map[string]any `json:"expected_args,omitempty"`
	NotTools     []string       `json:"not_tools,omitempty"`
}

// PairTest is one disambiguation request inside a ConfusionPair.
type PairTest struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Reason   string `json:"reason"`
}

// ConfusionPair groups tools that are easy to mix up.
type ConfusionPair struct {
	ID             string     `json:"id"`
	Tools          []string   `json:"tools"`
	Disambiguation string     `json:"disambiguation"`
	Tests          []PairTest `json:"tests"`
}

// Suite is a set of selection cases and confusion pairs.
type Suite struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Cases       []Case          `json:"cases"`
	Pairs       []ConfusionPair `json:"pairs"`
}

// Default returns the suite shipped with the server.
func Default() (*Suite, error) {
	return parse(defaultSuite)
}

// Load reads a suite from a JSON file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Suite, error) {
	var suite Suite
	if err := json.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parsing suite: %w", err)
	}
	return &suite, nil
}

// ToolNames returns every tool the suite references, sorted.
func (s *Suite) ToolNames() []string {
	seen := map[string]bool{}
	add := func(names ...string) {
		for _, n := range names {
			if n != "" {
				seen[n] = true
			}
		}
	}
	for _, c := range s.Cases {
		add(c.ExpectedTool)
		add(c.NotTools...)
	}
	for _, p := range s.Pairs {
		add(p.Tools...)
		for _, t := range p.Tests {
			add(t.Expected)
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// UnknownTools lists referenced tools missing from known.
func (s *Suite) UnknownTools(known []string) []string {
	registered := make(map[string]bool, len(known))
	for _, k := range known {
		registered[k] = true
	}
	var unknown []string
	for _, n := range s.ToolNames() {
		if !registered[n] {
			unknown = append(unknown, n)
		}
	}
	return unknown
}

// ToolSelector is implemented by an LLM harness or a recording.
type ToolSelector interface {
	SelectTool(input string) (toolName string, args map[string]any, err error)
}

// Selection is one recorded answer.
type Selection struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// Recorded replays selections keyed by input text.
type Recorded map[string]Selection

// LoadRecorded reads a JSON object of input -> selection.
func LoadRecorded(path string) (Recorded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading responses: %w", err)
	}
	var r Recorded
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing responses: %w", err)
	}
	return r, nil
}

func (r Recorded) SelectTool(input string) (string, map[string]any, error) {
	sel, ok := r[input]
	if !ok {
		return "", nil, fmt.Errorf("no recorded selection for %q", input)
	}
	return sel.Tool, sel.Args, nil
}

// Tally counts outcomes for a category or pair.
type Tally struct {
	Total  int
	Passed int
}

// Report aggregates one evaluation run.
type Report struct {
	Suite      string
	Total      int
	Passed     int
	ByCategory map[string]*Tally
	Failures   []string
}

// Accuracy is Passed/Total, or 0 for an empty run.
func (r *Report) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Total)
}

func (r *Report) record(category string, passed bool, failure string) {
	r.Total++
	t := r.ByCategory[category]
	if t == nil {
		t = &Tally{}
		r.ByCategory[category] = t
	}
	t.Total++
	if passed {
		r.Passed++
		t.Passed++
		return
	}
	r.Failures = append(r.Failures, failure)
}

// Evaluate runs every case and pair test through selector.
func Evaluate(suite *Suite, selector ToolSelector) *Report {
	report := &Report{Suite: suite.Name, ByCategory: map[string]*Tally{}}

	for _, c := range suite.Cases {
		tool, args, err := selector.SelectTool(c.Input)
		problems := checkCase(c, tool, args, err)
		report.record(c.Category, len(problems) == 0,
			fmt.Sprintf("[%s] %s: %s", c.ID, c.Input, strings.Join(problems, "; ")))
	}

	for _, p := range suite.Pairs {
		for _, t := range p.Tests {
			tool, _, err := selector.SelectTool(t.Input)
			passed := err == nil && tool == t.Expected
			report.record(p.ID, passed,
				fmt.Sprintf("[%s] %s: expected %s, got %s (%s)", p.ID, t.Input, t.Expected, tool, t.Reason))
		}
	}
	return report
}

func checkCase(c Case, tool string, args map[string]any, err error) []string {
	if err != nil {
		return []string{fmt.Sprintf("selector error: %v", err)}
	}

	var problems []string
	if tool != c.ExpectedTool {
		problems = append(problems, fmt.Sprintf("wrong tool: expected %s, got %s", c.ExpectedTool, tool))
	}
	for _, forbidden := range c.NotTools {
		if tool == forbidden {
			problems = append(problems, "selected forbidden tool "+forbidden)
		}
	}

	keys := make([]string, 0, len(c.ExpectedArgs))
	for k := range c.ExpectedArgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		want := c.ExpectedArgs[k]
		got, ok := args[k]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("missing arg %s", k))
		case !sameValue(want, got):
			problems = append(problems, fmt.Sprintf("wrong arg %s: expected %v, got %v", k, want, got))
		}
	}
	return problems
}

// sameValue compares values after a JSON round trip so 3 and 3.0 match.
func sameValue(want, got any) bool {
	return reflect.DeepEqual(normalize(want), normalize(got))
}

func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// String renders a human-readable summary.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n=== %s ===\n", r.Suite)
	fmt.Fprintf(&b, "Passed: %d/%d (%.1f%%)\n", r.Passed, r.Total, r.Accuracy()*100)

	categories := make([]string, 0, len(r.ByCategory))
	for c := range r.ByCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	if len(categories) > 0 {
		b.WriteString("\nBy Category:\n")
		for _, c := range categories {
			t := r.ByCategory[c]
			fmt.Fprintf(&b, "  %-25s: %d/%d\n", c, t.Passed, t.Total)
		}
	}

	const shown = 10
	if n := len(r.Failures); n > 0 {
		b.WriteString("\nFailed:\n")
		for i, f := range r.Failures {
			if i == shown {
				fmt.Fprintf(&b, "  ... and %d more\n", n-shown)
				break
			}
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}
	return b.String()
}
