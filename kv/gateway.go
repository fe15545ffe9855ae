// Package kv persists documents as encoded values in a key value storage.
package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nasdf/odm/codec"
	"github.com/nasdf/odm/document"
	"github.com/nasdf/odm/storage"
	"github.com/nasdf/odm/update"
	"github.com/nasdf/odm/value"
)

// Separator joins the collection name and the document identity in a key.
const Separator = "/"

// Gateway persists the documents of one collection.
type Gateway struct {
	storage    storage.Storage
	collection string
	logger     *slog.Logger
}

var (
	_ document.Gateway = (*Gateway)(nil)
	_ document.Deleter = (*Gateway)(nil)
)

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for writes.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New returns a gateway for the named collection.
func New(s storage.Storage, collection string, opts ...Option) *Gateway {
	g := &Gateway{
		storage:    s,
		collection: collection,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Key returns the storage key of the document with the given identity.
func (g *Gateway) Key(id document.ID) string {
	return g.collection + Separator + id.String()
}

// InsertOrReplace writes the full document.
func (g *Gateway) InsertOrReplace(ctx context.Context, id document.ID, fields *value.Map) (document.ID, error) {
	data, err := codec.Marshal(fields)
	if err != nil {
		return "", err
	}
	if err := g.storage.Put(ctx, g.Key(id), data); err != nil {
		return "", err
	}
	g.logger.DebugContext(ctx, "stored document", "key", g.Key(id), "size", len(data))
	return id, nil
}

// ApplyOperations applies the operators to the stored document.
//
// The read, apply and write run as one storage update, so concurrent calls
// through any gateway over the same storage do not lose each other's
// operators. The stored document is only replaced when every operator applies.
func (g *Gateway) ApplyOperations(ctx context.Context, id document.ID, ops update.Operators) error {
	err := g.storage.Update(ctx, g.Key(id), func(content []byte) ([]byte, error) {
		fields, err := codec.UnmarshalMap(content)
		if err != nil {
			return nil, err
		}
		if err := update.Apply(fields, ops); err != nil {
			return nil, err
		}
		return codec.Marshal(fields)
	})
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", document.ErrNotFound, g.Key(id))
	}
	if err != nil {
		return err
	}
	g.logger.DebugContext(ctx, "updated document", "key", g.Key(id), "operators", ops.Len())
	return nil
}

// Find returns the stored fields of the document.
func (g *Gateway) Find(ctx context.Context, id document.ID) (*value.Map, error) {
	return g.find(ctx, id)
}

// Delete removes the stored document.
func (g *Gateway) Delete(ctx context.Context, id document.ID) error {
	err := g.storage.Delete(ctx, g.Key(id))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", document.ErrNotFound, g.Key(id))
	}
	if err != nil {
		return err
	}
	g.logger.DebugContext(ctx, "deleted document", "key", g.Key(id))
	return nil
}

// IDs returns the sorted identities of the stored documents.
func (g *Gateway) IDs(ctx context.Context) ([]document.ID, error) {
	prefix := g.collection + Separator
	keys, err := g.storage.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]document.ID, len(keys))
	for i, k := range keys {
		out[i] = document.ID(strings.TrimPrefix(k, prefix))
	}
	return out, nil
}

func (g *Gateway) find(ctx context.Context, id document.ID) (*value.Map, error) {
	data, err := g.storage.Get(ctx, g.Key(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", document.ErrNotFound, g.Key(id))
	}
	if err != nil {
		return nil, err
	}
	return codec.UnmarshalMap(data)
}
