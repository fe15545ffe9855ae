package odm

import (
	"context"

	"github.com/nasdf/odm/document"
	"github.com/nasdf/odm/value"
)

// Collection creates, loads and saves the documents of one collection.
type Collection struct {
	name      string
	db        *DB
	gateway   Gateway
	validator document.Validator
}

// Name returns the name of the collection.
func (c *Collection) Name() string {
	return c.name
}

// Gateway returns the gateway of the collection.
func (c *Collection) Gateway() Gateway {
	return c.gateway
}

// CreateDocument returns a new document that has not been saved yet.
func (c *Collection) CreateDocument(fields map[string]any, opts ...document.Option) (*document.Document, error) {
	m, err := value.MapFrom(fields)
	if err != nil {
		return nil, err
	}
	return document.New(c.options(append([]document.Option{document.WithFields(m)}, opts...))...), nil
}

// GetDocument loads the stored document with the given identity.
func (c *Collection) GetDocument(ctx context.Context, id document.ID, opts ...document.Option) (*document.Document, error) {
	fields, err := c.gateway.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return document.Load(id, fields, c.options(opts)...), nil
}

// SaveDocument saves the document to the collection.
func (c *Collection) SaveDocument(ctx context.Context, d *document.Document) error {
	return d.Save(ctx, c.gateway)
}

// DeleteDocument removes the document from the collection.
func (c *Collection) DeleteDocument(ctx context.Context, d *document.Document) error {
	return d.Delete(ctx, c.gateway)
}

func (c *Collection) options(opts []document.Option) []document.Option {
	out := []document.Option{
		document.WithIDGenerator(c.db.config.IDGenerator()),
		document.WithLogger(c.db.logger.With("collection", c.name)),
	}
	if c.validator != nil {
		out = append(out, document.WithValidator(c.validator))
	}
	return append(out, opts...)
}
