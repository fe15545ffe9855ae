package document

import (
	"errors"
	"fmt"

	"github.com/nasdf/odm/query"
	"github.com/nasdf/odm/selector"
	"github.com/nasdf/odm/update"
	"github.com/nasdf/odm/value"
)

// ErrInvalidExpression is returned when a pull has no expression.
var ErrInvalidExpression = errors.New("invalid pull expression")

// Set stores v at the selector, creating intermediate maps as needed.
func (d *Document) Set(sel string, v value.Value) error {
	p, err := selector.Parse(sel)
	if err != nil {
		return err
	}
	if v == nil {
		v = value.Null{}
	}
	selector.Set(d.fields, p, value.Clone(v))
	if !d.IsPersisted() {
		return nil
	}
	return d.track(p, func(t *update.Tracker, key string) {
		t.Set(key, value.Clone(v))
	})
}

// FromMap sets every top level entry of m.
func (d *Document) FromMap(m *value.Map) error {
	for k, v := range m.All() {
		if err := d.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Unset removes the value at the selector.
func (d *Document) Unset(sel string) error {
	p, err := selector.Parse(sel)
	if err != nil {
		return err
	}
	if !selector.Remove(d.fields, p) || !d.IsPersisted() {
		return nil
	}
	return d.track(p, func(t *update.Tracker, key string) {
		t.Unset(key)
	})
}

// Increment adds delta to the number at the selector. Absent values count as zero.
func (d *Document) Increment(sel string, delta value.Value) error {
	p, err := selector.Parse(sel)
	if err != nil {
		return err
	}
	current := selector.Get(d.fields, p)
	if current == nil {
		current = value.Int(0)
	}
	result, ok := value.Add(current, delta)
	if !ok {
		return fmt.Errorf("%w: cannot increment %s by %v", ErrNotNumeric, sel, delta)
	}
	selector.Set(d.fields, p, result)
	if !d.IsPersisted() {
		return nil
	}
	return d.track(p, func(t *update.Tracker, key string) {
		t.Increment(key, delta, result)
	})
}

// Append adds v to the value at the selector.
//
// An absent field is set to v, a scalar becomes [scalar, v] and a list gets
// v appended. The change is always tracked as a set of the resulting value.
func (d *Document) Append(sel string, v value.Value) error {
	p, err := selector.Parse(sel)
	if err != nil {
		return err
	}
	if v == nil {
		v = value.Null{}
	}
	v = value.Clone(v)
	var result value.Value
	switch current := selector.Get(d.fields, p).(type) {
	case nil:
		result = v
	case value.List:
		result = append(value.Clone(current).(value.List), v)
	default:
		result = value.List{current, v}
	}
	selector.Set(d.fields, p, result)
	if !d.IsPersisted() {
		return nil
	}
	return d.track(p, func(t *update.Tracker, key string) {
		t.Set(key, value.Clone(result))
	})
}

// Push appends v as a single element to the list at the selector.
//
// An absent field becomes [v]. A scalar becomes [scalar, v] and is tracked
// as a set, because a store can only push onto a list.
func (d *Document) Push(sel string, v value.Value) error {
	return d.push(sel, []value.Value{v}, false)
}

// PushEach appends each of the values to the list at the selector.
func (d *Document) PushEach(sel string, values []value.Value) error {
	return d.push(sel, values, true)
}

func (d *Document) push(sel string, values []value.Value, each bool) error {
	p, err := selector.Parse(sel)
	if err != nil {
		return err
	}
	values = cloneValues(values)
	promote := false
	var result value.List
	current, ok := selector.Lookup(d.fields, p)
	switch c := current.(type) {
	case value.List:
		result = append(value.Clone(c).(value.List), values...)
	case value.Null:
		result = append(value.List{}, values...)
		promote = true
	default:
		if !ok {
			result = append(value.List{}, values...)
			break
		}
		result = append(value.List{current}, values...)
		promote = true
	}
	selector.Set(d.fields, p, result)
	if !d.IsPersisted() {
		return nil
	}
	return d.track(p, func(t *update.Tracker, key string) {
		if promote {
			t.Set(key, value.Clone(result))
			return
		}
		t.Push(key, cloneValues(values), each, value.Clone(result))
	})
}

// Pull removes the elements matching expr from the list at the selector.
//
// The local list is updated immediately. Nothing happens when the field is not a list.
func (d *Document) Pull(sel string, expr *query.Expr) error {
	p, err := selector.Parse(sel)
	if err != nil {
		return err
	}
	if expr == nil {
		return ErrInvalidExpression
	}
	expr = expr.Clone()
	current, ok := selector.Get(d.fields, p).(value.List)
	if !ok {
		return nil
	}
	result, _ := expr.Filter(current)
	selector.Set(d.fields, p, result)
	if !d.IsPersisted() {
		return nil
	}
	return d.track(p, func(t *update.Tracker, key string) {
		t.Pull(key, expr, value.Clone(result))
	})
}

// track records an operator for p after the local fields have been updated.
//
// When an enclosing path already has a pending entry, the mutation is folded
// into a set of the enclosing path's current value instead.
func (d *Document) track(p selector.Path, record func(t *update.Tracker, key string)) error {
	if !d.IsPersisted() {
		return ErrNotPersisted
	}
	key := p.String()
	if anc, ok := d.tracker.Ancestor(key); ok {
		ap, err := selector.Parse(anc)
		if err != nil {
			return err
		}
		if v, ok := selector.Lookup(d.fields, ap); ok {
			d.tracker.Set(anc, value.Clone(v))
		} else {
			d.tracker.Unset(anc)
		}
		return nil
	}
	record(&d.tracker, key)
	return nil
}

func cloneValues(values []value.Value) []value.Value {
	out := make([]value.Value, len(values))
	for i, v := range values {
		if v == nil {
			v = value.Null{}
		}
		out[i] = value.Clone(v)
	}
	return out
}
