// Package node converts document values to and from IPLD data model nodes.
package node

import (
	"fmt"

	"github.com/ipld/go-ipld-prime/datamodel"

	"github.com/nasdf/odm/value"
)

// Value returns the document value for the given node.
func Value(n datamodel.Node) (value.Value, error) {
	switch n.Kind() {
	case datamodel.Kind_Bool:
		b, err := n.AsBool()
		return value.Bool(b), err
	case datamodel.Kind_Float:
		f, err := n.AsFloat()
		return value.Float(f), err
	case datamodel.Kind_Int:
		i, err := n.AsInt()
		return value.Int(i), err
	case datamodel.Kind_String:
		s, err := n.AsString()
		return value.String(s), err
	case datamodel.Kind_List:
		return ListValue(n)
	case datamodel.Kind_Map:
		return MapValue(n)
	case datamodel.Kind_Null:
		return value.Null{}, nil
	default:
		return nil, fmt.Errorf("cannot get value from %s", n.Kind().String())
	}
}

// MapValue returns a map containing the values in the given node.
func MapValue(n datamodel.Node) (*value.Map, error) {
	if n.Kind() != datamodel.Kind_Map {
		return nil, fmt.Errorf("cannot get map value from %s", n.Kind().String())
	}
	out := value.NewMap()
	for iter := n.MapIterator(); !iter.Done(); {
		k, v, err := iter.Next()
		if err != nil {
			return nil, err
		}
		key, err := k.AsString()
		if err != nil {
			return nil, err
		}
		val, err := Value(v)
		if err != nil {
			return nil, err
		}
		out.Set(key, val)
	}
	return out, nil
}

// ListValue returns a list containing the values in the given node.
func ListValue(n datamodel.Node) (value.List, error) {
	out := make(value.List, n.Length())
	for iter := n.ListIterator(); !iter.Done(); {
		i, v, err := iter.Next()
		if err != nil {
			return nil, err
		}
		val, err := Value(v)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}
