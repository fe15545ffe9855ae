// Package update accumulates field level mutations into incremental update operators.
package update

import (
	"slices"

	"github.com/nasdf/odm/query"
	"github.com/nasdf/odm/value"
)

// Kind is the type of an update operator.
type Kind string

const (
	// Set replaces the value at a path.
	Set Kind = "set"
	// Unset removes the value at a path.
	Unset Kind = "unset"
	// Increment adds a numeric delta to the value at a path.
	Increment Kind = "increment"
	// Push appends values to the list at a path.
	Push Kind = "push"
	// Pull removes matching elements from the list at a path.
	Pull Kind = "pull"
)

// Kinds lists every operator kind in the order a store applies them.
var Kinds = []Kind{Set, Unset, Increment, Push, Pull}

// Op is the payload of a single operator entry.
type Op struct {
	// Value is the new value of a set or the delta of an increment.
	Value value.Value
	// Values are the elements appended by a push.
	Values []value.Value
	// Each is true when a push appends each of its values rather than a single value.
	Each bool
	// Expr selects the elements removed by a pull.
	Expr *query.Expr
}

// Operators maps operator kinds to the entries for each path.
type Operators map[Kind]map[string]Op

// Len returns the total number of entries.
func (o Operators) Len() int {
	n := 0
	for _, entries := range o {
		n += len(entries)
	}
	return n
}

// Get returns the entry of the given kind at the given path.
func (o Operators) Get(kind Kind, path string) (Op, bool) {
	op, ok := o[kind][path]
	return op, ok
}

// Paths returns the sorted paths that have an entry of the given kind.
func (o Operators) Paths(kind Kind) []string {
	paths := make([]string, 0, len(o[kind]))
	for p := range o[kind] {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Clone returns a deep copy of the operators.
func (o Operators) Clone() Operators {
	out := make(Operators, len(o))
	for kind, entries := range o {
		copied := make(map[string]Op, len(entries))
		for p, op := range entries {
			copied[p] = op.clone()
		}
		out[kind] = copied
	}
	return out
}

func (op Op) clone() Op {
	out := Op{
		Value: value.Clone(op.Value),
		Each:  op.Each,
		Expr:  op.Expr.Clone(),
	}
	if op.Values != nil {
		out.Values = make([]value.Value, len(op.Values))
		for i, v := range op.Values {
			out.Values[i] = value.Clone(v)
		}
	}
	return out
}
