package document

import (
	"github.com/google/uuid"
	"gopkg.in/mgo.v2/bson"
)

// ID is the opaque identity of a persisted document in its string form.
type ID string

// String returns the string form of the identity.
func (id ID) String() string {
	return string(id)
}

// IDGenerator returns a new unique identity.
type IDGenerator func() ID

// NewObjectID returns a new 12-byte object identifier in hex form.
func NewObjectID() ID {
	return ID(bson.NewObjectId().Hex())
}

// NewUUID returns a new random UUID.
func NewUUID() ID {
	return ID(uuid.NewString())
}
