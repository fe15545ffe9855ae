// Package object computes content hashes of documents.
package object

import (
	"bytes"
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"github.com/nasdf/odm/codec"
	"github.com/nasdf/odm/value"
)

// Hash is the unique hash of an object.
type Hash []byte

// Sum returns the hash of the given data.
func Sum(data []byte) Hash {
	hash := sha3.Sum256(data)
	return Hash(hash[:])
}

// Of returns the hash of the encoded value. Maps hash in field order.
func Of(v value.Value) (Hash, error) {
	data, err := codec.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Sum(data), nil
}

// Equal returns true if the given hash is equal to this hash.
func (h Hash) Equal(other Hash) bool {
	return bytes.Equal(h, other)
}

// String returns the hex representation of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h)
}
