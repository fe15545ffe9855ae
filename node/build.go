package node

import (
	"fmt"

	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/node/basicnode"

	"github.com/nasdf/odm/value"
)

// Build returns a new node containing the given value.
func Build(v value.Value) (datamodel.Node, error) {
	nb := basicnode.Prototype.Any.NewBuilder()
	if err := AssignValue(v, nb); err != nil {
		return nil, err
	}
	return nb.Build(), nil
}

// AssignValue assigns the given value to the node assembler.
func AssignValue(v value.Value, na datamodel.NodeAssembler) error {
	switch t := v.(type) {
	case nil, value.Null:
		return na.AssignNull()
	case value.Bool:
		return na.AssignBool(bool(t))
	case value.String:
		return na.AssignString(string(t))
	case value.Int:
		return na.AssignInt(int64(t))
	case value.Float:
		return na.AssignFloat(float64(t))
	case value.List:
		return assignListValue(t, na)
	case *value.Map:
		return assignMapValue(t, na)
	default:
		return fmt.Errorf("unknown value type %T", v)
	}
}

func assignListValue(v value.List, na datamodel.NodeAssembler) error {
	la, err := na.BeginList(int64(len(v)))
	if err != nil {
		return err
	}
	for _, e := range v {
		err := AssignValue(e, la.AssembleValue())
		if err != nil {
			return err
		}
	}
	return la.Finish()
}

func assignMapValue(v *value.Map, na datamodel.NodeAssembler) error {
	ma, err := na.BeginMap(int64(v.Len()))
	if err != nil {
		return err
	}
	for k, e := range v.All() {
		ea, err := ma.AssembleEntry(k)
		if err != nil {
			return err
		}
		err = AssignValue(e, ea)
		if err != nil {
			return err
		}
	}
	return ma.Finish()
}
