// Package value implements the dynamically typed field values stored in documents.
package value

import (
	"math"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
	KindList:   "list",
	KindMap:    "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is one of Null, Bool, Int, Float, String, List or *Map.
//
// A nil Value means the field is absent.
type Value interface {
	Kind() Kind
}

type (
	// Null is an explicit null value.
	Null struct{}
	// Bool is a boolean value.
	Bool bool
	// Int is a signed integer value.
	Int int64
	// Float is a floating point value.
	Float float64
	// String is a string value.
	String string
	// List is an ordered sequence of values.
	List []Value
)

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Int) Kind() Kind    { return KindInt }
func (Float) Kind() Kind  { return KindFloat }
func (String) Kind() Kind { return KindString }
func (List) Kind() Kind   { return KindList }

// IsNull returns true if the value is absent or an explicit null.
func IsNull(v Value) bool {
	return v == nil || v.Kind() == KindNull
}

// IsNumber returns true if the value is an Int or a Float.
func IsNumber(v Value) bool {
	if v == nil {
		return false
	}
	k := v.Kind()
	return k == KindInt || k == KindFloat
}

// IsScalar returns true if the value is not a list or a map.
func IsScalar(v Value) bool {
	if v == nil {
		return false
	}
	k := v.Kind()
	return k != KindList && k != KindMap
}

// Add returns the numeric sum of a and b.
//
// The result is an Int when both operands are Int and a Float otherwise.
func Add(a, b Value) (Value, bool) {
	if !IsNumber(a) || !IsNumber(b) {
		return nil, false
	}
	x, xok := a.(Int)
	y, yok := b.(Int)
	if xok && yok {
		return x + y, true
	}
	return Float(toFloat(a) + toFloat(b)), true
}

// Compare orders two numbers or two strings.
//
// The boolean result is false when the values are not comparable.
func Compare(a, b Value) (int, bool) {
	if IsNumber(a) && IsNumber(b) {
		x, y := toFloat(a), toFloat(b)
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		default:
			return 0, true
		}
	}
	x, xok := a.(String)
	y, yok := b.(String)
	if !xok || !yok {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	default:
		return 0, true
	}
}

// Equal reports whether a and b are structurally equal.
//
// Absent and null compare equal, numbers compare by numeric value,
// and maps compare without regard to key order.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	if IsNumber(a) && IsNumber(b) {
		return toFloat(a) == toFloat(b)
	}
	switch x := a.(type) {
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for k, v := range x.All() {
			w, ok := y.Get(k)
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of the value.
func Clone(v Value) Value {
	switch x := v.(type) {
	case List:
		out := make(List, len(x))
		for i, e := range x {
			out[i] = Clone(e)
		}
		return out
	case *Map:
		return x.Clone()
	default:
		return v
	}
}

func toFloat(v Value) float64 {
	switch x := v.(type) {
	case Int:
		return float64(x)
	case Float:
		return float64(x)
	default:
		return math.NaN()
	}
}
