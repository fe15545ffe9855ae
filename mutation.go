package odm

import (
	"errors"
	"fmt"

	"github.com/nasdf/odm/document"
	"github.com/nasdf/odm/query"
	"github.com/nasdf/odm/update"
	"github.com/nasdf/odm/value"
)

// Mutation operations.
const (
	MutationSet       = "set"
	MutationUnset     = "unset"
	MutationIncrement = "increment"
	MutationAppend    = "append"
	MutationPush      = "push"
	MutationPushEach  = "push_each"
	MutationPull      = "pull"
)

// ErrInvalidMutation is returned for mutations with an unknown operation or no path.
var ErrInvalidMutation = errors.New("invalid mutation")

// Mutation is a serializable field mutation of a document.
type Mutation struct {
	Op     string `yaml:"op" json:"op"`
	Path   string `yaml:"path" json:"path"`
	Value  any    `yaml:"value" json:"value,omitempty"`
	Values []any  `yaml:"values" json:"values,omitempty"`
	Match  any    `yaml:"match" json:"match,omitempty"`
}

// Validate checks the operation and path of the mutation.
func (m Mutation) Validate() error {
	switch m.Op {
	case MutationSet, MutationUnset, MutationIncrement, MutationAppend, MutationPush, MutationPushEach, MutationPull:
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidMutation, m.Op)
	}
	if m.Path == "" {
		return fmt.Errorf("%w: %s needs a path", ErrInvalidMutation, m.Op)
	}
	return nil
}

// Apply performs the mutation on the document.
func (m Mutation) Apply(d *document.Document) error {
	if err := m.Validate(); err != nil {
		return err
	}
	v, err := value.From(m.Value)
	if err != nil {
		return err
	}
	switch m.Op {
	case MutationSet:
		return d.Set(m.Path, v)
	case MutationUnset:
		return d.Unset(m.Path)
	case MutationIncrement:
		return d.Increment(m.Path, v)
	case MutationAppend:
		return d.Append(m.Path, v)
	case MutationPush:
		return d.Push(m.Path, v)
	case MutationPushEach:
		values := make([]value.Value, len(m.Values))
		for i, e := range m.Values {
			if values[i], err = value.From(e); err != nil {
				return err
			}
		}
		return d.PushEach(m.Path, values)
	default:
		match, err := value.From(m.Match)
		if err != nil {
			return err
		}
		return d.Pull(m.Path, query.Match(match))
	}
}

// OperatorsMap returns the plain go representation of the operators keyed by kind and path.
//
// Unset entries are true, single pushes are the pushed value, each-of pushes
// are {"each": [...]} and pulls are the store form of their expression.
func OperatorsMap(ops update.Operators) map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, kind := range update.Kinds {
		paths := ops.Paths(kind)
		if len(paths) == 0 {
			continue
		}
		entries := make(map[string]any, len(paths))
		for _, p := range paths {
			op, _ := ops.Get(kind, p)
			entries[p] = operatorValue(kind, op)
		}
		out[string(kind)] = entries
	}
	return out
}

func operatorValue(kind update.Kind, op update.Op) any {
	switch kind {
	case update.Unset:
		return true
	case update.Push:
		if !op.Each && len(op.Values) == 1 {
			return value.Go(op.Values[0])
		}
		each := make([]any, len(op.Values))
		for i, v := range op.Values {
			each[i] = value.Go(v)
		}
		return map[string]any{"each": each}
	case update.Pull:
		return value.Go(op.Expr.Value())
	default:
		return value.Go(op.Value)
	}
}
