// Package selection turns a line of user input into a classified choice
// among the operations in a registry.
package selection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/majorcontext/hostprobe/internal/operation"
)

// Kind classifies the outcome of resolving user input.
type Kind int

const (
	// Invalid means the input named no operation, or an index out of range.
	Invalid Kind = iota
	// Quit means the user asked to end the session.
	Quit
	// Selected means exactly one operation was chosen.
	Selected
	// Ambiguous means a nickname matched several operations. This is a
	// defect in the nickname table, not a user error.
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case Quit:
		return "quit"
	case Selected:
		return "selected"
	case Ambiguous:
		return "ambiguous"
	default:
		return "invalid"
	}
}

// Result is the outcome of a single Resolve call.
type Result struct {
	Kind Kind
	// Operation is set when Kind is Selected.
	Operation operation.Operation
	// Index is the 1-based menu position of Operation when Kind is Selected.
	Index int
	// Candidates holds the matching operations, in registration order, when
	// Kind is Ambiguous.
	Candidates []operation.Operation
	// CandidateIndexes holds the 1-based positions of Candidates.
	CandidateIndexes []int
}

// Equal reports whether two results describe the same outcome.
func (r Result) Equal(other Result) bool {
	if r.Kind != other.Kind || r.Index != other.Index {
		return false
	}
	if !r.Operation.Equal(other.Operation) {
		return false
	}
	if len(r.Candidates) != len(other.Candidates) {
		return false
	}
	for i := range r.Candidates {
		if !r.Candidates[i].Equal(other.Candidates[i]) || r.CandidateIndexes[i] != other.CandidateIndexes[i] {
			return false
		}
	}
	return true
}

// Suggestion renders the ambiguity prompt shown to the operator, e.g.
// "Did you mean 2 or 5?". It is empty unless Kind is Ambiguous.
func (r Result) Suggestion() string {
	if r.Kind != Ambiguous || len(r.CandidateIndexes) == 0 {
		return ""
	}
	items := make([]string, len(r.CandidateIndexes))
	for i, idx := range r.CandidateIndexes {
		items[i] = strconv.Itoa(idx)
	}
	return fmt.Sprintf("Did you mean %s?", OrList(items...))
}

// Resolver maps raw input to a Result. It holds no state besides the
// registry and is safe for concurrent use once the registry is populated.
type Resolver struct {
	registry *operation.Registry
}

// NewResolver returns a resolver over the given registry.
func NewResolver(r *operation.Registry) *Resolver {
	return &Resolver{registry: r}
}

// Resolve classifies raw input. Exit keywords win, then numeric indexes
// (with punctuation ignored), then nicknames (with punctuation kept).
func (r *Resolver) Resolve(raw string) Result {
	text := strings.TrimSpace(raw)

	if IsExit(text) {
		return Result{Kind: Quit}
	}

	if n, ok := operation.ParseIndex(text); ok {
		if n == 0 {
			return Result{Kind: Quit}
		}
		op, err := r.registry.ByIndex(n)
		if err != nil {
			return Result{Kind: Invalid}
		}
		return Result{Kind: Selected, Operation: op, Index: n}
	}

	matches := r.registry.MatchNickname(text)
	if len(matches) == 0 {
		return Result{Kind: Invalid}
	}

	idx := make([]int, 0, len(matches))
	for i := 1; i <= r.registry.Size(); i++ {
		if op, _ := r.registry.ByIndex(i); op.Matches(text) {
			idx = append(idx, i)
		}
	}
	if len(matches) == 1 {
		return Result{Kind: Selected, Operation: matches[0], Index: idx[0]}
	}
	return Result{Kind: Ambiguous, Candidates: matches, CandidateIndexes: idx}
}

// IsExit reports whether text is one of the exit keywords, ignoring case.
func IsExit(text string) bool {
	for _, k := range operation.ExitKeywords {
		if strings.EqualFold(text, k) {
			return true
		}
	}
	return false
}

// OrList joins items as an English alternative: "a", "a or b", "a, b, or c".
func OrList(items ...string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " or " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", or " + items[len(items)-1]
}
