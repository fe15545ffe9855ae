package codec

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/nasdf/odm/value"
)

type Encoder struct {
	w *bufio.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{bufio.NewWriter(w)}
}

func (e *Encoder) Flush() error {
	return e.w.Flush()
}

func (e *Encoder) Encode(v value.Value) error {
	switch t := v.(type) {
	case nil, value.Null:
		return e.w.WriteByte(kindNull)
	case value.String:
		return e.EncodeString(string(t))
	case value.Int:
		return e.EncodeInt64(int64(t))
	case value.Float:
		return e.EncodeFloat64(float64(t))
	case value.Bool:
		return e.EncodeBool(bool(t))
	case value.List:
		return e.EncodeList(t)
	case *value.Map:
		return e.EncodeMap(t)
	default:
		return fmt.Errorf("no encoder for %T", v)
	}
}

func (e *Encoder) EncodeString(v string) error {
	err := e.w.WriteByte(kindString)
	if err != nil {
		return err
	}
	err = e.writeUint64(uint64(len(v)))
	if err != nil {
		return err
	}
	_, err = e.w.WriteString(v)
	return err
}

func (e *Encoder) EncodeInt64(v int64) error {
	err := e.w.WriteByte(kindInt64)
	if err != nil {
		return err
	}
	return e.writeUint64(uint64(v))
}

func (e *Encoder) EncodeFloat64(v float64) error {
	err := e.w.WriteByte(kindFloat64)
	if err != nil {
		return err
	}
	return e.writeUint64(math.Float64bits(v))
}

func (e *Encoder) EncodeBool(v bool) error {
	err := e.w.WriteByte(kindBool)
	if err != nil {
		return err
	}
	if v {
		return e.w.WriteByte(1)
	}
	return e.w.WriteByte(0)
}

func (e *Encoder) EncodeList(v value.List) error {
	err := e.w.WriteByte(kindList)
	if err != nil {
		return err
	}
	err = e.writeUint64(uint64(len(v)))
	if err != nil {
		return err
	}
	for _, elem := range v {
		err := e.Encode(elem)
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) EncodeMap(v *value.Map) error {
	err := e.w.WriteByte(kindMap)
	if err != nil {
		return err
	}
	err = e.writeUint64(uint64(v.Len()))
	if err != nil {
		return err
	}
	for k, elem := range v.All() {
		err := e.EncodeString(k)
		if err != nil {
			return err
		}
		err = e.Encode(elem)
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeUint64(v uint64) error {
	for i := 0; i < 8; i++ {
		err := e.w.WriteByte(byte(v >> (i * 8)))
		if err != nil {
			return err
		}
	}
	return nil
}
