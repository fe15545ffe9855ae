package link

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/ipld/go-ipld-prime/datamodel"

	"github.com/nasdf/odm/document"
	"github.com/nasdf/odm/node"
	"github.com/nasdf/odm/selector"
	"github.com/nasdf/odm/update"
	"github.com/nasdf/odm/value"
)

// Gateway persists the documents of one collection in a Store.
type Gateway struct {
	store      *Store
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

// NewGateway returns a gateway for the named collection.
func NewGateway(store *Store, collection string, opts ...Option) *Gateway {
	g := &Gateway{
		store:      store,
		collection: collection,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Collection returns the name of the collection.
func (g *Gateway) Collection() string {
	return g.collection
}

// InsertOrReplace stores the document and links it from a new root.
func (g *Gateway) InsertOrReplace(ctx context.Context, id document.ID, fields *value.Map) (document.ID, error) {
	lnk, err := g.storeDocument(ctx, fields)
	if err != nil {
		return "", err
	}
	head, err := g.store.update(ctx, func(r *root) error {
		g.documents(r)[id.String()] = lnk
		return nil
	})
	if err != nil {
		return "", err
	}
	g.logger.DebugContext(ctx, "stored document", "collection", g.collection, "id", id, "link", lnk, "root", head)
	return id, nil
}

// ApplyOperations loads the stored document, applies the operators and links the result from a new root.
func (g *Gateway) ApplyOperations(ctx context.Context, id document.ID, ops update.Operators) error {
	head, err := g.store.update(ctx, func(r *root) error {
		docs := g.documents(r)
		current, ok := docs[id.String()]
		if !ok {
			return fmt.Errorf("%w: %s/%s", document.ErrNotFound, g.collection, id)
		}
		fields, err := g.loadDocument(ctx, current)
		if err != nil {
			return err
		}
		if err := update.Apply(fields, ops); err != nil {
			return err
		}
		lnk, err := g.storeDocument(ctx, fields)
		if err != nil {
			return err
		}
		docs[id.String()] = lnk
		return nil
	})
	if err != nil {
		return err
	}
	g.logger.DebugContext(ctx, "updated document", "collection", g.collection, "id", id, "operators", ops.Len(), "root", head)
	return nil
}

// Find returns the stored fields of the document.
func (g *Gateway) Find(ctx context.Context, id document.ID) (*value.Map, error) {
	lnk, err := g.documentLink(ctx, id)
	if err != nil {
		return nil, err
	}
	return g.loadDocument(ctx, lnk)
}

// Field returns the stored value at the selector of the document.
func (g *Gateway) Field(ctx context.Context, id document.ID, sel string) (value.Value, error) {
	if _, err := g.documentLink(ctx, id); err != nil {
		return nil, err
	}
	p, err := selector.Parse(sel)
	if err != nil {
		return nil, err
	}
	head, err := g.store.RootLink(ctx)
	if err != nil {
		return nil, err
	}
	rootNode, err := g.store.Load(ctx, head)
	if err != nil {
		return nil, err
	}
	path := DocumentPath(g.collection, id.String())
	for _, seg := range p {
		path = path.AppendSegmentString(seg)
	}
	n, err := g.store.GetNode(ctx, path, rootNode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s %s", document.ErrNotFound, g.collection, id, sel)
	}
	return node.Value(n)
}

// Delete unlinks the document from a new root.
func (g *Gateway) Delete(ctx context.Context, id document.ID) error {
	_, err := g.store.update(ctx, func(r *root) error {
		docs := g.documents(r)
		if _, ok := docs[id.String()]; !ok {
			return fmt.Errorf("%w: %s/%s", document.ErrNotFound, g.collection, id)
		}
		delete(docs, id.String())
		return nil
	})
	if err != nil {
		return err
	}
	g.logger.DebugContext(ctx, "deleted document", "collection", g.collection, "id", id)
	return nil
}

// IDs returns the sorted identities of the stored documents.
func (g *Gateway) IDs(ctx context.Context) ([]document.ID, error) {
	head, err := g.store.RootLink(ctx)
	if err != nil {
		return nil, err
	}
	r, err := g.store.loadRoot(ctx, head)
	if err != nil {
		return nil, err
	}
	ids := slices.Sorted(maps.Keys(r.collections[g.collection]))
	out := make([]document.ID, len(ids))
	for i, id := range ids {
		out[i] = document.ID(id)
	}
	return out, nil
}

func (g *Gateway) documents(r *root) map[string]datamodel.Link {
	docs, ok := r.collections[g.collection]
	if !ok {
		docs = make(map[string]datamodel.Link)
		r.collections[g.collection] = docs
	}
	return docs
}

func (g *Gateway) documentLink(ctx context.Context, id document.ID) (datamodel.Link, error) {
	head, err := g.store.RootLink(ctx)
	if err != nil {
		return nil, err
	}
	r, err := g.store.loadRoot(ctx, head)
	if err != nil {
		return nil, err
	}
	lnk, ok := r.collections[g.collection][id.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", document.ErrNotFound, g.collection, id)
	}
	return lnk, nil
}

func (g *Gateway) storeDocument(ctx context.Context, fields *value.Map) (datamodel.Link, error) {
	n, err := node.Build(fields)
	if err != nil {
		return nil, err
	}
	return g.store.Store(ctx, n)
}

func (g *Gateway) loadDocument(ctx context.Context, lnk datamodel.Link) (*value.Map, error) {
	n, err := g.store.Load(ctx, lnk)
	if err != nil {
		return nil, err
	}
	return node.MapValue(n)
}
