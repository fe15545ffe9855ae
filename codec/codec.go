// Package codec implements the binary encoding of document values.
//
// Every value starts with a kind byte. Integers and floats are written as
// little endian 64 bit words, strings, lists and maps are prefixed with
// their length. Map entries keep their insertion order.
package codec

import (
	"bytes"

	"github.com/nasdf/odm/value"
)

const (
	kindString  = byte(1)
	kindBool    = byte(3)
	kindInt64   = byte(4)
	kindFloat64 = byte(5)
	kindMap     = byte(6)
	kindList    = byte(7)
	kindNull    = byte(9)
)

// Marshal returns the encoding of v.
func Marshal(v value.Value) ([]byte, error) {
	var buffer bytes.Buffer
	enc := NewEncoder(&buffer)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Unmarshal decodes a single value from data.
func Unmarshal(data []byte) (value.Value, error) {
	return NewDecoder(bytes.NewReader(data)).Decode()
}

// UnmarshalMap decodes a single map from data.
func UnmarshalMap(data []byte) (*value.Map, error) {
	return NewDecoder(bytes.NewReader(data)).DecodeMap()
}
