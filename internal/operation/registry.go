// Package operation defines the diagnostic operations a host agent
// understands and the ordered registry the client selects them from.
package operation

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

// ErrOutOfRange is returned by ByIndex for positions outside [1, Size()].
var ErrOutOfRange = errors.New("operation index out of range")

// Operation is a byte-coded diagnostic command. Operations are values and
// are never mutated after registration.
type Operation struct {
	// Description is shown to the user in the menu.
	Description string
	// Code is the byte the server and client agree identifies this operation.
	Code byte
	// Nicknames are case-insensitive aliases. They must be mutually exclusive
	// across a registry; see Table.Validate.
	Nicknames []string
}

// Matches reports whether text equals one of the operation's nicknames,
// ignoring case.
func (o Operation) Matches(text string) bool {
	for _, n := range o.Nicknames {
		if strings.EqualFold(text, n) {
			return true
		}
	}
	return false
}

// Equal reports whether two operations carry the same code, description and
// nicknames.
func (o Operation) Equal(other Operation) bool {
	if o.Code != other.Code || o.Description != other.Description {
		return false
	}
	if len(o.Nicknames) != len(other.Nicknames) {
		return false
	}
	for i := range o.Nicknames {
		if o.Nicknames[i] != other.Nicknames[i] {
			return false
		}
	}
	return true
}

func (o Operation) String() string {
	return fmt.Sprintf("%s (code %d)", o.Description, o.Code)
}

// Registry is an ordered collection of operations. The position of an
// operation is its 1-based menu index; index 0 is reserved for quit.
//
// A Registry is populated once, before it is shared, and only read afterwards.
// Register is not safe for concurrent use with readers.
type Registry struct {
	ops []Operation
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends an operation. The caller is responsible for code and
// nickname uniqueness; nothing is validated here.
func (r *Registry) Register(description string, code byte, nicknames ...string) {
	nicks := make([]string, len(nicknames))
	copy(nicks, nicknames)
	r.ops = append(r.ops, Operation{
		Description: description,
		Code:        code,
		Nicknames:   nicks,
	})
}

// Size returns the number of registered operations.
func (r *Registry) Size() int {
	return len(r.ops)
}

// ByIndex returns the operation at 1-based position i.
func (r *Registry) ByIndex(i int) (Operation, error) {
	if i < 1 || i > len(r.ops) {
		return Operation{}, fmt.Errorf("%w: %d not in [1, %d]", ErrOutOfRange, i, len(r.ops))
	}
	return r.ops[i-1], nil
}

// MatchNickname returns every operation with a nickname equal to text,
// ignoring case, in registration order. A correctly configured registry
// yields zero or one match; more than one means the nickname table is broken.
func (r *Registry) MatchNickname(text string) []Operation {
	var matches []Operation
	for _, op := range r.ops {
		if op.Matches(text) {
			matches = append(matches, op)
		}
	}
	return matches
}

// DescribeAll yields (index, description) pairs in registration order.
func (r *Registry) DescribeAll() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for i, op := range r.ops {
			if !yield(i+1, op.Description) {
				return
			}
		}
	}
}

// Nicknames returns every nickname in the registry in registration order.
func (r *Registry) Nicknames() []string {
	var out []string
	for _, op := range r.ops {
		out = append(out, op.Nicknames...)
	}
	return out
}
