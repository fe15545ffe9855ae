package value

import (
	"fmt"
	"math"
	"sort"
)

// From returns the Value for the given go value.
//
// Supported inputs are nil, bool, all integer and float types, string,
// []any, map[string]any, and values that already implement Value.
// Keys of a map[string]any are inserted in sorted order.
func From(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(x), nil
	case int8:
		return Int(x), nil
	case int16:
		return Int(x), nil
	case int32:
		return Int(x), nil
	case int64:
		return Int(x), nil
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return Int(x), nil
	case uint16:
		return Int(x), nil
	case uint32:
		return Int(x), nil
	case uint64:
		return fromUint(x)
	case float32:
		return Float(x), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	case []Value:
		return List(x), nil
	case []any:
		out := make(List, len(x))
		for i, e := range x {
			ev, err := From(e)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case []string:
		out := make(List, len(x))
		for i, e := range x {
			out[i] = String(e)
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := NewMap()
		for _, k := range keys {
			ev, err := From(x[k])
			if err != nil {
				return nil, err
			}
			out.Set(k, ev)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func fromUint(x uint64) (Value, error) {
	if x > math.MaxInt64 {
		return nil, fmt.Errorf("unsigned value %d overflows int64", x)
	}
	return Int(x), nil
}

// MustFrom is like From but panics if the value cannot be converted.
func MustFrom(v any) Value {
	out, err := From(v)
	if err != nil {
		panic(err)
	}
	return out
}

// MapFrom returns a Map containing the converted entries of the given go map.
func MapFrom(m map[string]any) (*Map, error) {
	v, err := From(m)
	if err != nil {
		return nil, err
	}
	return v.(*Map), nil
}

// Go returns the plain go representation of the given value.
//
// Absent and null values become nil, lists become []any and maps become map[string]any.
func Go(v Value) any {
	switch x := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(x)
	case Int:
		return int64(x)
	case Float:
		return float64(x)
	case String:
		return string(x)
	case List:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Go(e)
		}
		return out
	case *Map:
		out := make(map[string]any, x.Len())
		for k, e := range x.All() {
			out[k] = Go(e)
		}
		return out
	default:
		return nil
	}
}
