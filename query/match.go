package query

import (
	"strings"

	"github.com/nasdf/odm/value"
)

// Matches returns true if the given list element satisfies the expression.
func (e *Expr) Matches(elem value.Value) bool {
	if len(e.conditions) == 0 {
		return value.Equal(elem, e.literal)
	}
	doc, ok := elem.(*value.Map)
	if !ok {
		return false
	}
	for _, c := range e.conditions {
		if !c.matches(doc) {
			return false
		}
	}
	return true
}

// Filter returns the elements of the list that do not match the expression.
func (e *Expr) Filter(list value.List) (value.List, int) {
	out := make(value.List, 0, len(list))
	for _, elem := range list {
		if !e.Matches(elem) {
			out = append(out, elem)
		}
	}
	return out, len(list) - len(out)
}

func (c Condition) matches(doc *value.Map) bool {
	candidates := resolve(doc, strings.Split(c.Field, "."))
	switch c.Operator {
	case OpNotEqual:
		return !anyEqual(candidates, c.Value)
	case OpIn:
		options, _ := c.Value.(value.List)
		for _, o := range options {
			if anyEqual(candidates, o) {
				return true
			}
		}
		return false
	case OpGreater:
		return anyCompare(candidates, c.Value, func(n int) bool { return n > 0 })
	case OpLess:
		return anyCompare(candidates, c.Value, func(n int) bool { return n < 0 })
	default:
		return anyEqual(candidates, c.Value)
	}
}

// resolve collects the values at the given segments, descending into every
// map element of lists found along the way.
func resolve(v value.Value, segments []string) []value.Value {
	if len(segments) == 0 {
		return []value.Value{v}
	}
	switch x := v.(type) {
	case *value.Map:
		next, ok := x.Get(segments[0])
		if !ok {
			return nil
		}
		return resolve(next, segments[1:])
	case value.List:
		var out []value.Value
		for _, elem := range x {
			if _, ok := elem.(*value.Map); ok {
				out = append(out, resolve(elem, segments)...)
			}
		}
		return out
	default:
		return nil
	}
}

// anyEqual returns true if a candidate equals want, or is a list containing want.
func anyEqual(candidates []value.Value, want value.Value) bool {
	for _, c := range candidates {
		if value.Equal(c, want) {
			return true
		}
		if list, ok := c.(value.List); ok {
			for _, elem := range list {
				if value.Equal(elem, want) {
					return true
				}
			}
		}
	}
	return false
}

func anyCompare(candidates []value.Value, want value.Value, accept func(int) bool) bool {
	for _, c := range candidates {
		values := []value.Value{c}
		if list, ok := c.(value.List); ok {
			values = list
		}
		for _, v := range values {
			n, ok := value.Compare(v, want)
			if ok && accept(n) {
				return true
			}
		}
	}
	return false
}
