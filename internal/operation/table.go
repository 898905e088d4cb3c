package operation

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExitKeywords are the words that end an interactive session. Nicknames may
// not shadow them.
var ExitKeywords = []string{"quit", "stop", "exit"}

// Entry is the declarative form of an Operation.
type Entry struct {
	Description string   `yaml:"description" json:"description"`
	Code        byte     `yaml:"code" json:"code"`
	Nicknames   []string `yaml:"nicknames,omitempty" json:"nicknames,omitempty"`
}

// Table is an ordered list of entries, as read from an operations file.
type Table struct {
	Operations []Entry `yaml:"operations"`
}

// Default returns the operations every host agent supports.
func Default() Table {
	return Table{Operations: []Entry{
		{Description: "Get host date & time", Code: 11, Nicknames: []string{"date", "time"}},
		{Description: "Get host uptime", Code: 22, Nicknames: []string{"uptime"}},
		{Description: "Get host memory usage", Code: 33, Nicknames: []string{"memory", "mem"}},
		{Description: "Get host netstat output", Code: 44, Nicknames: []string{"netstat"}},
		{Description: "Get host current users", Code: 55, Nicknames: []string{"users", "who"}},
		{Description: "Get host running processes", Code: 66, Nicknames: []string{"process", "processes", "ps"}},
	}}
}

// TableError lists every problem found while validating a Table.
type TableError struct {
	Problems []string
}

func (e *TableError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid operations table: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid operations table (%d problems):\n  %s",
		len(e.Problems), strings.Join(e.Problems, "\n  "))
}

// Validate checks the invariants the registry assumes but does not enforce:
// descriptions are present, codes are unique, and nicknames are mutually
// exclusive (case-insensitively). Nicknames also may not be empty, equal an
// exit keyword, or look like a number, since the resolver would never reach
// them.
func (t Table) Validate() error {
	var problems []string
	codes := make(map[byte]int)
	nicks := make(map[string]int)

	for i, e := range t.Operations {
		pos := i + 1
		if strings.TrimSpace(e.Description) == "" {
			problems = append(problems, fmt.Sprintf("operation %d: description is empty", pos))
		}
		if prev, ok := codes[e.Code]; ok {
			problems = append(problems, fmt.Sprintf("operation %d: code %d already used by operation %d", pos, e.Code, prev))
		} else {
			codes[e.Code] = pos
		}
		for _, n := range e.Nicknames {
			key := strings.ToLower(strings.TrimSpace(n))
			switch {
			case key == "":
				problems = append(problems, fmt.Sprintf("operation %d: empty nickname", pos))
				continue
			case strings.TrimSpace(n) != n:
				problems = append(problems, fmt.Sprintf("operation %d: nickname %q has surrounding whitespace", pos, n))
			case isExitKeyword(key):
				problems = append(problems, fmt.Sprintf("operation %d: nickname %q is reserved", pos, n))
			case isIndex(key):
				problems = append(problems, fmt.Sprintf("operation %d: nickname %q would be read as an index", pos, n))
			}
			if prev, ok := nicks[key]; ok && prev != pos {
				problems = append(problems, fmt.Sprintf("operation %d: nickname %q already used by operation %d", pos, n, prev))
			} else {
				nicks[key] = pos
			}
		}
	}

	if len(problems) > 0 {
		return &TableError{Problems: problems}
	}
	return nil
}

// Registry builds a registry from the table without validating it.
func (t Table) Registry() *Registry {
	r := NewRegistry()
	for _, e := range t.Operations {
		r.Register(e.Description, e.Code, e.Nicknames...)
	}
	return r
}

// New validates the table and builds a registry from it.
func New(t Table) (*Registry, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t.Registry(), nil
}

// LoadTable reads an operations file.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("reading operations file: %w", err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parsing operations file %s: %w", path, err)
	}
	if len(t.Operations) == 0 {
		return Table{}, fmt.Errorf("operations file %s defines no operations", path)
	}
	return t, nil
}

func isExitKeyword(s string) bool {
	for _, k := range ExitKeywords {
		if strings.EqualFold(s, k) {
			return true
		}
	}
	return false
}

func isIndex(s string) bool {
	_, ok := ParseIndex(s)
	return ok
}
