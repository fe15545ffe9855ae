// Package query implements the match expressions used to pull elements from lists.
package query

import (
	"github.com/nasdf/odm/value"
)

// Operator is a comparison applied to a field.
type Operator string

const (
	OpEqual    Operator = "$eq"
	OpNotEqual Operator = "$ne"
	OpIn       Operator = "$in"
	OpGreater  Operator = "$gt"
	OpLess     Operator = "$lt"
)

// Condition compares the value at a dotted field path.
type Condition struct {
	Field    string
	Operator Operator
	Value    value.Value
}

// Expr matches list elements.
//
// An Expr is either a literal that matches equal elements, or a list of
// conditions that must all hold for an element.
type Expr struct {
	literal    value.Value
	conditions []Condition
}

// Match returns an expression for the given value.
//
// Maps are matched as sub-document equality where each key is a condition.
// Any other value matches equal elements.
func Match(v value.Value) *Expr {
	m, ok := v.(*value.Map)
	if !ok {
		return &Expr{literal: value.Clone(v)}
	}
	e := &Expr{}
	for k, fv := range m.All() {
		e.Where(k, fv)
	}
	return e
}

// Where returns a new expression matching elements whose field equals v.
func Where(field string, v value.Value) *Expr {
	return (&Expr{}).Where(field, v)
}

// Where adds an equality condition.
func (e *Expr) Where(field string, v value.Value) *Expr {
	return e.add(field, OpEqual, v)
}

// WhereNot adds an inequality condition.
func (e *Expr) WhereNot(field string, v value.Value) *Expr {
	return e.add(field, OpNotEqual, v)
}

// WhereIn adds a condition matching any of the given values.
func (e *Expr) WhereIn(field string, values ...value.Value) *Expr {
	return e.add(field, OpIn, value.List(values))
}

// WhereGreater adds a condition matching values greater than v.
func (e *Expr) WhereGreater(field string, v value.Value) *Expr {
	return e.add(field, OpGreater, v)
}

// WhereLess adds a condition matching values less than v.
func (e *Expr) WhereLess(field string, v value.Value) *Expr {
	return e.add(field, OpLess, v)
}

func (e *Expr) add(field string, op Operator, v value.Value) *Expr {
	e.literal = nil
	e.conditions = append(e.conditions, Condition{Field: field, Operator: op, Value: value.Clone(v)})
	return e
}

// Clone returns a deep copy of the expression. Builder calls on either copy do not affect the other.
func (e *Expr) Clone() *Expr {
	if e == nil {
		return nil
	}
	out := &Expr{literal: value.Clone(e.literal)}
	if e.conditions != nil {
		out.conditions = make([]Condition, len(e.conditions))
		for i, c := range e.conditions {
			out.conditions[i] = Condition{Field: c.Field, Operator: c.Operator, Value: value.Clone(c.Value)}
		}
	}
	return out
}

// Conditions returns the conditions of the expression.
func (e *Expr) Conditions() []Condition {
	return e.conditions
}

// Value returns the store representation of the expression.
//
// Literals are returned as is. Conditions are grouped by field, and a
// field with a single equality condition is represented by its value.
func (e *Expr) Value() value.Value {
	if len(e.conditions) == 0 {
		if e.literal == nil {
			return value.Null{}
		}
		return value.Clone(e.literal)
	}
	grouped := make(map[string][]Condition)
	out := value.NewMap()
	for _, c := range e.conditions {
		if _, ok := grouped[c.Field]; !ok {
			out.Set(c.Field, value.Null{})
		}
		grouped[c.Field] = append(grouped[c.Field], c)
	}
	for _, field := range out.Keys() {
		conds := grouped[field]
		if len(conds) == 1 && conds[0].Operator == OpEqual {
			out.Set(field, value.Clone(conds[0].Value))
			continue
		}
		ops := value.NewMap()
		for _, c := range conds {
			ops.Set(string(c.Operator), value.Clone(c.Value))
		}
		out.Set(field, ops)
	}
	return out
}
