package update

import (
	"errors"
	"fmt"

	"github.com/nasdf/odm/selector"
	"github.com/nasdf/odm/value"
)

// ErrInvalidOperand is returned when an operator cannot be applied to the current value.
var ErrInvalidOperand = errors.New("invalid operand")

// Apply applies the operators to doc the way a store applies an update request.
//
// Kinds are applied in the order of Kinds and paths in sorted order. On
// error doc may be partially updated, so stores apply to a copy.
func Apply(doc *value.Map, ops Operators) error {
	for _, kind := range Kinds {
		for _, p := range ops.Paths(kind) {
			path, err := selector.Parse(p)
			if err != nil {
				return err
			}
			if err := apply(doc, kind, path, ops[kind][p]); err != nil {
				return err
			}
		}
	}
	return nil
}

func apply(doc *value.Map, kind Kind, path selector.Path, op Op) error {
	switch kind {
	case Set:
		selector.Set(doc, path, value.Clone(op.Value))

	case Unset:
		selector.Remove(doc, path)

	case Increment:
		current := selector.Get(doc, path)
		if current == nil {
			current = value.Int(0)
		}
		sum, ok := value.Add(current, op.Value)
		if !ok {
			return fmt.Errorf("%w: cannot increment %s of kind %s", ErrInvalidOperand, path, current.Kind())
		}
		selector.Set(doc, path, sum)

	case Push:
		var list value.List
		switch current := selector.Get(doc, path).(type) {
		case nil:
		case value.List:
			list = current
		default:
			return fmt.Errorf("%w: cannot push to %s of kind %s", ErrInvalidOperand, path, current.Kind())
		}
		out := make(value.List, 0, len(list)+len(op.Values))
		out = append(out, list...)
		for _, v := range op.Values {
			out = append(out, value.Clone(v))
		}
		selector.Set(doc, path, out)

	case Pull:
		switch current := selector.Get(doc, path).(type) {
		case nil:
		case value.List:
			if op.Expr == nil {
				return fmt.Errorf("%w: pull from %s has no expression", ErrInvalidOperand, path)
			}
			out, _ := op.Expr.Filter(current)
			selector.Set(doc, path, out)
		default:
			return fmt.Errorf("%w: cannot pull from %s of kind %s", ErrInvalidOperand, path, current.Kind())
		}

	default:
		return fmt.Errorf("%w: unknown operator %s", ErrInvalidOperand, kind)
	}
	return nil
}
