package mongo

import (
	"fmt"
	"time"

	"gopkg.in/mgo.v2/bson"

	"github.com/nasdf/odm/document"
	"github.com/nasdf/odm/value"
)

// IDField is the name of the identity field of a stored document.
const IDField = "_id"

// DocumentID returns the stored form of the identity.
//
// Identities in ObjectId hex form are stored as ObjectIds.
func DocumentID(id document.ID) any {
	if bson.IsObjectIdHex(id.String()) {
		return bson.ObjectIdHex(id.String())
	}
	return id.String()
}

// ID returns the identity of a stored identifier.
func ID(v any) document.ID {
	switch t := v.(type) {
	case bson.ObjectId:
		return document.ID(t.Hex())
	case string:
		return document.ID(t)
	default:
		return document.ID(fmt.Sprint(t))
	}
}

// ToBSON returns the bson representation of the value. Maps keep their order.
func ToBSON(v value.Value) any {
	switch t := v.(type) {
	case nil, value.Null:
		return nil
	case value.Bool:
		return bool(t)
	case value.Int:
		return int64(t)
	case value.Float:
		return float64(t)
	case value.String:
		return string(t)
	case value.List:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = ToBSON(e)
		}
		return out
	case *value.Map:
		out := make(bson.D, 0, t.Len())
		for k, e := range t.All() {
			out = append(out, bson.DocElem{Name: k, Value: ToBSON(e)})
		}
		return out
	default:
		return nil
	}
}

// FromBSON returns the value of a decoded bson element.
func FromBSON(v any) (value.Value, error) {
	switch t := v.(type) {
	case nil:
		return value.Null{}, nil
	case bool:
		return value.Bool(t), nil
	case int:
		return value.Int(t), nil
	case int32:
		return value.Int(t), nil
	case int64:
		return value.Int(t), nil
	case float64:
		return value.Float(t), nil
	case string:
		return value.String(t), nil
	case bson.ObjectId:
		return value.String(t.Hex()), nil
	case time.Time:
		return value.String(t.UTC().Format(time.RFC3339Nano)), nil
	case []any:
		out := make(value.List, len(t))
		for i, e := range t {
			ev, err := FromBSON(e)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case bson.D:
		out := value.NewMap()
		for _, e := range t {
			ev, err := FromBSON(e.Value)
			if err != nil {
				return nil, err
			}
			out.Set(e.Name, ev)
		}
		return out, nil
	case bson.M:
		return FromBSON(map[string]any(t))
	case map[string]any:
		return value.From(t)
	default:
		return nil, fmt.Errorf("unsupported bson type %T", v)
	}
}

// fields returns the fields of a stored document without its identity.
func fields(raw bson.D) (*value.Map, error) {
	out := value.NewMap()
	for _, e := range raw {
		if e.Name == IDField {
			continue
		}
		ev, err := FromBSON(e.Value)
		if err != nil {
			return nil, err
		}
		out.Set(e.Name, ev)
	}
	return out, nil
}
