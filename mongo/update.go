package mongo

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/mgo.v2/bson"

	"github.com/nasdf/odm/update"
)

var operatorNames = map[update.Kind]string{
	update.Set:       "$set",
	update.Unset:     "$unset",
	update.Increment: "$inc",
	update.Push:      "$push",
	update.Pull:      "$pull",
}

// ErrPathConflict is returned for operators that a server rejects in a
// single update because two of them target the same path or nested paths.
var ErrPathConflict = errors.New("conflicting update paths")

// UpdateDocument returns the update request for the operators.
func UpdateDocument(ops update.Operators) (bson.M, error) {
	if err := checkConflicts(ops); err != nil {
		return nil, err
	}
	out := bson.M{}
	for _, kind := range update.Kinds {
		paths := ops.Paths(kind)
		if len(paths) == 0 {
			continue
		}
		entries := bson.M{}
		for _, p := range paths {
			entries[p] = operand(kind, ops[kind][p])
		}
		out[operatorNames[kind]] = entries
	}
	return out, nil
}

// checkConflicts finds two entries whose paths are equal or nested.
func checkConflicts(ops update.Operators) error {
	type entry struct {
		kind update.Kind
		path string
	}
	var seen []entry
	for _, kind := range update.Kinds {
		for _, p := range ops.Paths(kind) {
			for _, e := range seen {
				if overlaps(e.path, p) {
					return fmt.Errorf("%w: %s %s and %s %s", ErrPathConflict,
						operatorNames[e.kind], e.path, operatorNames[kind], p)
				}
			}
			seen = append(seen, entry{kind: kind, path: p})
		}
	}
	return nil
}

func overlaps(a, b string) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	return a == b || strings.HasPrefix(b, a+".")
}

func operand(kind update.Kind, op update.Op) any {
	switch kind {
	case update.Unset:
		return ""
	case update.Push:
		if !op.Each && len(op.Values) == 1 {
			return ToBSON(op.Values[0])
		}
		values := make([]any, len(op.Values))
		for i, v := range op.Values {
			values[i] = ToBSON(v)
		}
		return bson.M{"$each": values}
	case update.Pull:
		if op.Expr == nil {
			return nil
		}
		return ToBSON(op.Expr.Value())
	default:
		return ToBSON(op.Value)
	}
}
