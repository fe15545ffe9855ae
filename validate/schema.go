package validate

import (
	"fmt"
	"slices"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/nasdf/odm/document"
	"github.com/nasdf/odm/value"
)

// FromSchema returns a validator for the fields of the named object type in
// a GraphQL schema.
//
// Non null fields are required. Every field is checked against its declared
// type: built in scalars, enums, lists and nested object types. Nested
// object fields are validated with dotted paths.
func FromSchema(source, typeName string) (*Validator, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{
		Name:  "schema.graphql",
		Input: source,
	})
	if err != nil {
		return nil, err
	}
	def, ok := schema.Types[typeName]
	if !ok || def.Kind != ast.Object {
		return nil, fmt.Errorf("object type %s not found in schema", typeName)
	}
	v := New()
	addFields(v, schema, def, "", []string{typeName})
	return v, nil
}

func addFields(v *Validator, schema *ast.Schema, def *ast.Definition, prefix string, seen []string) {
	for _, field := range def.Fields {
		if field.Name == "_id" || len(field.Name) > 1 && field.Name[:2] == "__" {
			continue
		}
		path := prefix + field.Name
		if field.Type.NonNull {
			v.Add(Required(path))
		}
		v.Add(Func("type", typeCheck(schema, field.Type), path).
			WithMessage("field %q must be of type " + field.Type.String()))

		if field.Type.Elem != nil {
			continue
		}
		nested, ok := schema.Types[field.Type.NamedType]
		if !ok || nested.Kind != ast.Object || slices.Contains(seen, nested.Name) {
			continue
		}
		addFields(v, schema, nested, path+".", append(seen, nested.Name))
	}
}

func typeCheck(schema *ast.Schema, t *ast.Type) Check {
	return func(d *document.Document, field string, v value.Value) bool {
		return matchesType(schema, t, v)
	}
}

func matchesType(schema *ast.Schema, t *ast.Type, v value.Value) bool {
	if value.IsNull(v) {
		return !t.NonNull
	}
	if t.Elem != nil {
		list, ok := v.(value.List)
		if !ok {
			return false
		}
		for _, e := range list {
			if !matchesType(schema, t.Elem, e) {
				return false
			}
		}
		return true
	}
	switch t.NamedType {
	case "Int":
		return v.Kind() == value.KindInt
	case "Float":
		return value.IsNumber(v)
	case "String", "ID":
		return v.Kind() == value.KindString
	case "Boolean":
		return v.Kind() == value.KindBool
	}
	def, ok := schema.Types[t.NamedType]
	if !ok {
		return false
	}
	switch def.Kind {
	case ast.Enum:
		s, ok := v.(value.String)
		return ok && def.EnumValues.ForName(string(s)) != nil
	case ast.Object, ast.InputObject:
		return v.Kind() == value.KindMap
	case ast.Scalar:
		return value.IsScalar(v)
	default:
		return false
	}
}
