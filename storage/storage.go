// Package storage provides byte level key value storage for gateways.
package storage

import (
	"context"
	"errors"

	"github.com/ipld/go-ipld-prime/storage"
)

var ErrNotFound = errors.New("key not found")

// Storage is a key value store that also serves as IPLD block storage.
type Storage interface {
	storage.ReadableStorage
	storage.WritableStorage
	// Delete removes the value stored under key.
	Delete(ctx context.Context, key string) error
	// Keys returns the sorted keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Update replaces the value stored under key with the result of fn.
	// No other write to the storage happens between the read and the write.
	// It returns ErrNotFound without calling fn when key is missing, and
	// leaves the value unchanged when fn fails.
	Update(ctx context.Context, key string, fn func(content []byte) ([]byte, error)) error
}
