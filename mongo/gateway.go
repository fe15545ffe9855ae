package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/nasdf/odm/document"
	"github.com/nasdf/odm/update"
	"github.com/nasdf/odm/value"
)

// Gateway persists the documents of one collection.
type Gateway struct {
	session    *Session
	collection string
	logger     *slog.Logger
}

var (
	_ document.Gateway = (*Gateway)(nil)
	_ document.Deleter = (*Gateway)(nil)
)

// InsertOrReplace upserts the full document.
func (g *Gateway) InsertOrReplace(ctx context.Context, id document.ID, fields *value.Map) (document.ID, error) {
	doc := ToBSON(fields).(bson.D)
	err := g.session.execute(ctx, g.collection, func(c *mgo.Collection) error {
		_, err := c.UpsertId(DocumentID(id), doc)
		return err
	})
	if err != nil {
		return "", err
	}
	g.logger.DebugContext(ctx, "upserted document", "collection", g.collection, "id", id)
	return id, nil
}

// ApplyOperations sends the operators in a single update request.
func (g *Gateway) ApplyOperations(ctx context.Context, id document.ID, ops update.Operators) error {
	if ops.Len() == 0 {
		return nil
	}
	req, err := UpdateDocument(ops)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", g.collection, id, err)
	}
	err = g.session.execute(ctx, g.collection, func(c *mgo.Collection) error {
		return c.UpdateId(DocumentID(id), req)
	})
	if err != nil {
		return g.mapError(id, err)
	}
	g.logger.DebugContext(ctx, "updated document", "collection", g.collection, "id", id, "operators", ops.Len())
	return nil
}

// Find returns the stored fields of the document.
func (g *Gateway) Find(ctx context.Context, id document.ID) (*value.Map, error) {
	var raw bson.D
	err := g.session.execute(ctx, g.collection, func(c *mgo.Collection) error {
		return c.FindId(DocumentID(id)).One(&raw)
	})
	if err != nil {
		return nil, g.mapError(id, err)
	}
	return fields(raw)
}

// Delete removes the stored document.
func (g *Gateway) Delete(ctx context.Context, id document.ID) error {
	err := g.session.execute(ctx, g.collection, func(c *mgo.Collection) error {
		return c.RemoveId(DocumentID(id))
	})
	if err != nil {
		return g.mapError(id, err)
	}
	g.logger.DebugContext(ctx, "removed document", "collection", g.collection, "id", id)
	return nil
}

func (g *Gateway) mapError(id document.ID, err error) error {
	if errors.Is(err, mgo.ErrNotFound) {
		return fmt.Errorf("%w: %s/%s", document.ErrNotFound, g.collection, id)
	}
	return err
}
