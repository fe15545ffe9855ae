package codec

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/nasdf/odm/value"
)

// maxLength limits the length prefix of strings, lists and maps.
const maxLength = 1 << 32

type Decoder struct {
	r *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{bufio.NewReader(r)}
}

func (e *Decoder) Decode() (value.Value, error) {
	kind, err := e.r.ReadByte()
	if err != nil {
		return nil, err
	}
	err = e.r.UnreadByte()
	if err != nil {
		return nil, err
	}
	switch kind {
	case kindNull:
		_, err := e.r.ReadByte()
		return value.Null{}, err
	case kindString:
		s, err := e.DecodeString()
		return value.String(s), err
	case kindInt64:
		i, err := e.DecodeInt64()
		return value.Int(i), err
	case kindFloat64:
		f, err := e.DecodeFloat64()
		return value.Float(f), err
	case kindBool:
		b, err := e.DecodeBool()
		return value.Bool(b), err
	case kindList:
		return e.DecodeList()
	case kindMap:
		return e.DecodeMap()
	default:
		return nil, fmt.Errorf("invalid codec kind %x", kind)
	}
}

func (e *Decoder) DecodeString() (string, error) {
	if err := e.readKind(kindString); err != nil {
		return "", err
	}
	size, err := e.readLength()
	if err != nil {
		return "", err
	}
	v := make([]byte, size)
	_, err = io.ReadFull(e.r, v)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (e *Decoder) DecodeInt64() (int64, error) {
	if err := e.readKind(kindInt64); err != nil {
		return 0, err
	}
	v, err := e.readUint64()
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

func (e *Decoder) DecodeFloat64() (float64, error) {
	if err := e.readKind(kindFloat64); err != nil {
		return 0, err
	}
	v, err := e.readUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (e *Decoder) DecodeBool() (bool, error) {
	if err := e.readKind(kindBool); err != nil {
		return false, err
	}
	v, err := e.r.ReadByte()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (e *Decoder) DecodeList() (value.List, error) {
	if err := e.readKind(kindList); err != nil {
		return nil, err
	}
	size, err := e.readLength()
	if err != nil {
		return nil, err
	}
	v := make(value.List, 0, min(size, 1024))
	for i := uint64(0); i < size; i++ {
		elem, err := e.Decode()
		if err != nil {
			return nil, err
		}
		v = append(v, elem)
	}
	return v, nil
}

func (e *Decoder) DecodeMap() (*value.Map, error) {
	if err := e.readKind(kindMap); err != nil {
		return nil, err
	}
	size, err := e.readLength()
	if err != nil {
		return nil, err
	}
	v := value.NewMap()
	for i := uint64(0); i < size; i++ {
		k, err := e.DecodeString()
		if err != nil {
			return nil, err
		}
		elem, err := e.Decode()
		if err != nil {
			return nil, err
		}
		v.Set(k, elem)
	}
	return v, nil
}

func (e *Decoder) readKind(expect byte) error {
	kind, err := e.r.ReadByte()
	if err != nil {
		return err
	}
	if kind != expect {
		return fmt.Errorf("unexpected codec kind %x", kind)
	}
	return nil
}

func (e *Decoder) readLength() (uint64, error) {
	size, err := e.readUint64()
	if err != nil {
		return 0, err
	}
	if size > maxLength {
		return 0, fmt.Errorf("codec length %d out of range", size)
	}
	return size, nil
}

func (e *Decoder) readUint64() (uint64, error) {
	result := uint64(0)
	for i := 0; i < 8; i++ {
		b, err := e.r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b) << (i * 8)
	}
	return result, nil
}
