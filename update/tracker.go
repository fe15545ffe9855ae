package update

import (
	"slices"
	"strings"

	"github.com/nasdf/odm/query"
	"github.com/nasdf/odm/value"
)

// Tracker accumulates pending operators with at most one entry per kind and path.
//
// The local value of the document is always the source of truth. Callers
// pass the already updated local value wherever a mutation may have to be
// folded into a full replace.
//
// The zero value is an empty tracker ready to use.
type Tracker struct {
	ops Operators
}

// HasPending returns true if any operator entry exists.
func (t *Tracker) HasPending() bool {
	return t.ops.Len() > 0
}

// Peek returns a copy of the pending operators without clearing them.
func (t *Tracker) Peek() Operators {
	return t.ops.Clone()
}

// Clear removes all pending operators.
func (t *Tracker) Clear() {
	t.ops = nil
}

// Drain returns the pending operators and clears them.
func (t *Tracker) Drain() Operators {
	out := t.ops
	if out == nil {
		out = Operators{}
	}
	t.ops = nil
	return out
}

// Ancestor returns the outermost path with a pending entry that contains the given path.
func (t *Tracker) Ancestor(path string) (string, bool) {
	found := ""
	for _, entries := range t.ops {
		for p := range entries {
			if isAncestor(p, path) && (found == "" || len(p) < len(found)) {
				found = p
			}
		}
	}
	return found, found != ""
}

// Set records a replace of the value at path. Any prior entry at path or below is dropped.
func (t *Tracker) Set(path string, v value.Value) {
	t.drop(path)
	t.put(Set, path, Op{Value: v})
}

// Unset records a removal of the value at path. Any prior entry at path or below is dropped.
func (t *Tracker) Unset(path string) {
	t.drop(path)
	t.put(Unset, path, Op{})
}

// Increment records a numeric delta at path.
//
// Deltas accumulate into an existing increment. When any other entry is
// pending at path the increment collapses into a set of result.
func (t *Tracker) Increment(path string, delta, result value.Value) {
	if op, ok := t.ops.Get(Increment, path); ok {
		if sum, ok := value.Add(op.Value, delta); ok {
			t.put(Increment, path, Op{Value: sum})
			return
		}
	}
	if t.pendingAt(path) {
		t.Set(path, result)
		return
	}
	t.drop(path)
	t.put(Increment, path, Op{Value: delta})
}

// Push records values appended to the list at path.
//
// Pushes on the same path merge into a single each-of entry. When any other
// entry is pending at path the push collapses into a set of result. A pending
// pull always forces the set, because a store applies pulls after pushes.
func (t *Tracker) Push(path string, values []value.Value, each bool, result value.Value) {
	if _, ok := t.ops.Get(Pull, path); ok {
		t.Set(path, result)
		return
	}
	if op, ok := t.ops.Get(Push, path); ok {
		t.put(Push, path, Op{Values: slices.Concat(op.Values, values), Each: true})
		return
	}
	if t.pendingAt(path) {
		t.Set(path, result)
		return
	}
	t.drop(path)
	t.put(Push, path, Op{Values: values, Each: each})
}

// Pull records the removal of elements matching expr from the list at path.
//
// A pull is kept next to pending set and push entries on the same path.
// A second pull on the same path collapses into a set of result.
func (t *Tracker) Pull(path string, expr *query.Expr, result value.Value) {
	if _, ok := t.ops.Get(Pull, path); ok {
		t.Set(path, result)
		return
	}
	t.put(Pull, path, Op{Expr: expr})
}

func (t *Tracker) put(kind Kind, path string, op Op) {
	if t.ops == nil {
		t.ops = make(Operators)
	}
	if t.ops[kind] == nil {
		t.ops[kind] = make(map[string]Op)
	}
	t.ops[kind][path] = op
}

func (t *Tracker) pendingAt(path string) bool {
	for _, entries := range t.ops {
		if _, ok := entries[path]; ok {
			return true
		}
	}
	return false
}

// drop removes every entry at path or below it.
func (t *Tracker) drop(path string) {
	for kind, entries := range t.ops {
		for p := range entries {
			if p == path || isAncestor(path, p) {
				delete(entries, p)
			}
		}
		if len(entries) == 0 {
			delete(t.ops, kind)
		}
	}
}

func isAncestor(parent, child string) bool {
	return len(child) > len(parent) && strings.HasPrefix(child, parent) && child[len(parent)] == '.'
}
